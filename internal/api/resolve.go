// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"net/url"
	"regexp"
)

// morphologyLinkPattern matches the anchor for the standardized morphology
// file on a neuron's info page. The page is not a documented API surface;
// a miss is reported as LinkNotFoundError, never guessed around.
var morphologyLinkPattern = regexp.MustCompile(`<a href=(dableFiles/[^>]*)>Morphology File \(Standardized\)</a>`)

// ResolveSWCURL scrapes the info page for neuronName and returns the
// absolute URL of its standardized SWC file. It returns a LinkNotFoundError
// when the page carries no such link, e.g. for records without a
// standardized reconstruction.
func (c *Client) ResolveSWCURL(ctx context.Context, neuronName string) (string, error) {
	page, err := c.GetText(ctx, NeuronInfoBase+url.QueryEscape(neuronName))
	if err != nil {
		return "", err
	}

	match := morphologyLinkPattern.FindSubmatch(page)
	if match == nil {
		return "", &LinkNotFoundError{Neuron: neuronName}
	}
	return SiteBase + "/" + string(match[1]), nil
}
