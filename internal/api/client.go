// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api is the HTTP client for the NeuroMorpho.org catalog. It covers
// the documented JSON surfaces (select, fields, health) and the scraped
// per-neuron info page used to locate morphology files.
package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kpeez/neuromorphopy/internal/httputil"
	"github.com/kpeez/neuromorphopy/pkg/types"
)

// Base URLs for the NeuroMorpho service. Declared as vars so tests can
// substitute httptest servers.
var (
	SiteBase       = "https://neuromorpho.org"
	APIBase        = "https://neuromorpho.org/api"
	NeuronInfoBase = "https://neuromorpho.org/neuron_info.jsp?neuron_name="
)

// Client talks to NeuroMorpho.org. Construct with NewClient; the zero value
// is not usable.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxRetries int
}

// NewClient builds a Client from cfg. When cfg.LegacyCiphers is set the
// transport accepts the wider cipher list the neuromorpho.org host still
// negotiates; the relaxation is scoped to this client's transport.
func NewClient(cfg types.HTTPConfig) *Client {
	transport := &http.Transport{}
	if cfg.LegacyCiphers {
		transport.TLSClientConfig = legacyTLSConfig()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "neuromorphopy/0.1"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent:  userAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// legacyTLSConfig widens the cipher list to include the RSA suites the
// catalog host negotiates. Certificate verification stays on.
func legacyTLSConfig() *tls.Config {
	suites := make([]uint16, 0, 16)
	for _, s := range tls.CipherSuites() {
		suites = append(suites, s.ID)
	}
	for _, s := range tls.InsecureCipherSuites() {
		suites = append(suites, s.ID)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS10,
		CipherSuites: suites,
	}
}

// get issues a GET request and returns the response after checking the
// status code. The caller owns the body.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("neuromorpho request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &RemoteError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	return resp, nil
}

// getJSON issues a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{URL: rawURL, Reason: fmt.Sprintf("malformed JSON response: %v", err)}
	}
	return nil
}

// GetText issues a GET request and returns the raw response body as text.
// Used for info pages and morphology file content.
func (c *Client) GetText(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", rawURL, err)
	}
	return body, nil
}

// Health reports whether the catalog API is up.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, APIBase+"/health", &body); err != nil {
		return false, err
	}
	return body.Status == "UP", nil
}

// QueryFields returns the set of field names the select API accepts.
func (c *Client) QueryFields(ctx context.Context) (map[string]bool, error) {
	var body struct {
		Fields []string `json:"Neuron Fields"`
	}
	if err := c.getJSON(ctx, APIBase+"/neuron/fields", &body); err != nil {
		return nil, err
	}
	if body.Fields == nil {
		return nil, &RemoteError{URL: APIBase + "/neuron/fields", Reason: "response missing Neuron Fields"}
	}
	return toSet(body.Fields), nil
}

// FieldValues returns the set of accepted values for one query field.
func (c *Client) FieldValues(ctx context.Context, field string) (map[string]bool, error) {
	reqURL := APIBase + "/neuron/fields/" + url.PathEscape(field)
	var body struct {
		Fields []string `json:"fields"`
	}
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		return nil, err
	}
	if body.Fields == nil {
		return nil, &RemoteError{URL: reqURL, Reason: "response missing fields"}
	}
	return toSet(body.Fields), nil
}

// selectResponse is the shape of /neuron/select responses.
type selectResponse struct {
	Page struct {
		TotalElements *int `json:"totalElements"`
	} `json:"page"`
	Embedded struct {
		NeuronResources []types.NeuronRecord `json:"neuronResources"`
	} `json:"_embedded"`
}

// selectURL builds a /neuron/select request URL for one page.
func selectURL(filter string, page, size int) string {
	params := url.Values{
		"q":    {filter},
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
	return APIBase + "/neuron/select?" + params.Encode()
}

// CountNeurons probes the select API with a single-element page and returns
// the total number of records matching filter.
func (c *Client) CountNeurons(ctx context.Context, filter string) (int, error) {
	reqURL := selectURL(filter, 0, 1)
	var body selectResponse
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		return 0, err
	}
	if body.Page.TotalElements == nil {
		return 0, &RemoteError{URL: reqURL, Reason: "response missing page.totalElements"}
	}
	return *body.Page.TotalElements, nil
}

// FetchPage returns one page of neuron records for filter.
func (c *Client) FetchPage(ctx context.Context, filter string, page, size int) ([]types.NeuronRecord, error) {
	var body selectResponse
	if err := c.getJSON(ctx, selectURL(filter, page, size), &body); err != nil {
		return nil, err
	}
	return body.Embedded.NeuronResources, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
