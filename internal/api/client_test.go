// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kpeez/neuromorphopy/internal/httputil"
	"github.com/kpeez/neuromorphopy/pkg/types"
)

// pointBases redirects the package base URLs at a test server and restores
// them on cleanup.
func pointBases(t *testing.T, ts *httptest.Server) {
	t.Helper()
	origSite, origAPI, origInfo := SiteBase, APIBase, NeuronInfoBase
	SiteBase = ts.URL
	APIBase = ts.URL + "/api"
	NeuronInfoBase = ts.URL + "/neuron_info.jsp?neuron_name="
	t.Cleanup(func() {
		SiteBase, APIBase, NeuronInfoBase = origSite, origAPI, origInfo
	})
}

func testClient() *Client {
	return NewClient(types.HTTPConfig{Timeout: 5 * time.Second})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantUp bool
	}{
		{"up", `{"status":"UP"}`, true},
		{"down", `{"status":"DOWN"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/health" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()
			pointBases(t, ts)

			up, err := testClient().Health(context.Background())
			if err != nil {
				t.Fatalf("Health() error = %v", err)
			}
			if up != tt.wantUp {
				t.Errorf("Health() = %v, want %v", up, tt.wantUp)
			}
		})
	}
}

func TestHealth_NoRetryByDefault(t *testing.T) {
	// A zero-valued HTTPConfig must issue exactly one request: the first
	// 429 surfaces as an error instead of being retried away.
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status":"UP"}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	_, err := NewClient(types.HTTPConfig{}).Health(context.Background())
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("Health() error = %v, want RemoteError", err)
	}
	if rerr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", rerr.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1 (no automatic retry)", got)
	}
}

func TestHealth_RetriesWhenConfigured(t *testing.T) {
	origDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = 1 * time.Millisecond
	t.Cleanup(func() { httputil.RetryBaseDelay = origDelay })

	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status":"UP"}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	up, err := NewClient(types.HTTPConfig{MaxRetries: 2}).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if !up {
		t.Error("Health() = false, want true after retry")
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestQueryFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Neuron Fields":["species","brain_region","cell_type"]}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	fields, err := testClient().QueryFields(context.Background())
	if err != nil {
		t.Fatalf("QueryFields() error = %v", err)
	}
	if len(fields) != 3 || !fields["species"] || !fields["brain_region"] {
		t.Errorf("QueryFields() = %v", fields)
	}
}

func TestQueryFields_MissingShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something_else":[]}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	_, err := testClient().QueryFields(context.Background())
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("QueryFields() error = %v, want RemoteError", err)
	}
	if rerr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for shape error", rerr.StatusCode)
	}
}

func TestFieldValues(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/neuron/fields/species" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"fields":["mouse","rat","human"]}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	values, err := testClient().FieldValues(context.Background(), "species")
	if err != nil {
		t.Fatalf("FieldValues() error = %v", err)
	}
	if !values["mouse"] || !values["human"] || len(values) != 3 {
		t.Errorf("FieldValues() = %v", values)
	}
}

func TestCountNeurons(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "species:mouse" {
			t.Errorf("q = %q, want %q", q.Get("q"), "species:mouse")
		}
		if q.Get("page") != "0" || q.Get("size") != "1" {
			t.Errorf("probe page/size = %s/%s, want 0/1", q.Get("page"), q.Get("size"))
		}
		w.Write([]byte(`{"page":{"totalElements":137},"_embedded":{"neuronResources":[{"neuron_name":"probe"}]}}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	total, err := testClient().CountNeurons(context.Background(), "species:mouse")
	if err != nil {
		t.Fatalf("CountNeurons() error = %v", err)
	}
	if total != 137 {
		t.Errorf("CountNeurons() = %d, want 137", total)
	}
}

func TestCountNeurons_MissingCount(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_embedded":{"neuronResources":[]}}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	_, err := testClient().CountNeurons(context.Background(), "species:mouse")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("CountNeurons() error = %v, want RemoteError", err)
	}
}

func TestCountNeurons_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	pointBases(t, ts)

	_, err := testClient().CountNeurons(context.Background(), "species:mouse")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("CountNeurons() error = %v, want RemoteError", err)
	}
	if rerr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", rerr.StatusCode)
	}
}

func TestFetchPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("size") != "50" {
			t.Errorf("page/size = %s/%s, want 2/50", q.Get("page"), q.Get("size"))
		}
		w.Write([]byte(`{"page":{"totalElements":3},"_embedded":{"neuronResources":[
			{"neuron_name":"n1","species":"mouse"},
			{"neuron_name":"n2","species":"rat"}
		]}}`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	records, err := testClient().FetchPage(context.Background(), "species:mouse", 2, 50)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("FetchPage() records = %d, want 2", len(records))
	}
	if records[0].Name() != "n1" {
		t.Errorf("records[0].Name() = %q, want n1", records[0].Name())
	}
	if species, _ := records[1].String("species"); species != "rat" {
		t.Errorf("records[1] species = %q, want rat", species)
	}
}

func TestResolveSWCURL(t *testing.T) {
	const infoPage = `<html><body>
	<a href=dableFiles/smith/CNG%20version/cell-042.CNG.swc>Morphology File (Standardized)</a>
	</body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("neuron_name"); got != "cell-042" {
			t.Errorf("neuron_name = %q, want cell-042", got)
		}
		w.Write([]byte(infoPage))
	}))
	defer ts.Close()
	pointBases(t, ts)

	url, err := testClient().ResolveSWCURL(context.Background(), "cell-042")
	if err != nil {
		t.Fatalf("ResolveSWCURL() error = %v", err)
	}
	want := ts.URL + "/dableFiles/smith/CNG%20version/cell-042.CNG.swc"
	if url != want {
		t.Errorf("ResolveSWCURL() = %q, want %q", url, want)
	}
}

func TestResolveSWCURL_EscapesName(t *testing.T) {
	// Catalog names can carry characters that are significant in a query
	// string; they must arrive as one intact parameter value.
	const name = "cell 42&flag#frag"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("neuron_name"); got != name {
			t.Errorf("neuron_name = %q, want %q", got, name)
		}
		w.Write([]byte(`<a href=dableFiles/a/x.CNG.swc>Morphology File (Standardized)</a>`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	if _, err := testClient().ResolveSWCURL(context.Background(), name); err != nil {
		t.Fatalf("ResolveSWCURL() error = %v", err)
	}
}

func TestResolveSWCURL_NoLink(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>No standardized file for this record.</body></html>`))
	}))
	defer ts.Close()
	pointBases(t, ts)

	_, err := testClient().ResolveSWCURL(context.Background(), "cell-042")
	var lerr *LinkNotFoundError
	if !errors.As(err, &lerr) {
		t.Fatalf("ResolveSWCURL() error = %v, want LinkNotFoundError", err)
	}
	if lerr.Neuron != "cell-042" {
		t.Errorf("LinkNotFoundError.Neuron = %q, want cell-042", lerr.Neuron)
	}
}
