// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import "fmt"

// statusHints maps the status codes the NeuroMorpho API documents to a
// human-readable cause.
var statusHints = map[int]string{
	400: "bad request, usually wrong parameters to select queries",
	404: "resource not found or does not exist",
	405: "unsupported HTTP method used",
	500: "internal server error, please notify nmoadmin@gmu.edu",
}

// RemoteError reports a non-2xx response or a response whose JSON body is
// missing an expected field. StatusCode is zero for shape errors.
type RemoteError struct {
	StatusCode int
	URL        string
	Reason     string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("neuromorpho: %s (%s)", e.Reason, e.URL)
	}
	if hint, ok := statusHints[e.StatusCode]; ok {
		return fmt.Sprintf("neuromorpho: HTTP %d from %s: %s", e.StatusCode, e.URL, hint)
	}
	return fmt.Sprintf("neuromorpho: HTTP %d from %s", e.StatusCode, e.URL)
}

// LinkNotFoundError reports a neuron info page without the expected
// standardized morphology link.
type LinkNotFoundError struct {
	Neuron string
}

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("no standardized morphology link on info page for %q", e.Neuron)
}
