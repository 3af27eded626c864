package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/provider"
)

func testDoc() provider.Document {
	return provider.Document{
		Name:   "contrato.pdf",
		MIME:   "application/pdf",
		Bytes:  []byte("%PDF-1.4 fake"),
		Format: constants.FormatPDF,
	}
}

func TestExtractFirstReachableWins(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("server could not parse multipart body: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"operadora":"unimed","confianca":"alta"}`))
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close() // unreachable candidate

	c := NewClient(Config{Endpoints: []string{dead.URL, srv.URL}}, nil)
	res := c.Extract(context.Background(), testDoc(), provider.Context{Scope: "empresa"})

	if !res.OK || !res.Connected {
		t.Fatalf("Result = %+v, want OK and Connected", res)
	}
	if res.Fields.Operator != "UNIMED" {
		t.Errorf("Operator = %q, want normalized UNIMED", res.Fields.Operator)
	}
	if len(res.Unreachable) != 1 || res.Unreachable[0] != dead.URL {
		t.Errorf("Unreachable = %v, want the dead endpoint recorded", res.Unreachable)
	}
	if gotPath != "/api/v1/pdf/extrair" {
		t.Errorf("posted to %q", gotPath)
	}
}

// A reachable endpoint that errors ends the scan: later candidates are not
// tried, and the status is reported for failover classification.
func TestExtractReachableErrorShortCircuits(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer failing.Close()

	healthyCalls := 0
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		healthyCalls++
		_, _ = w.Write([]byte(`{}`))
	}))
	defer healthy.Close()

	c := NewClient(Config{Endpoints: []string{failing.URL, healthy.URL}}, nil)
	res := c.Extract(context.Background(), testDoc(), provider.Context{})

	if res.OK {
		t.Error("Result.OK must be false on a 4xx")
	}
	if !res.Connected || res.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Connected=%v StatusCode=%d, want connected 422", res.Connected, res.StatusCode)
	}
	if healthyCalls != 0 {
		t.Errorf("later endpoint was tried %d times after a reachable failure", healthyCalls)
	}
}

func TestExtractAllUnreachable(t *testing.T) {
	a := httptest.NewServer(http.NotFoundHandler())
	a.Close()
	b := httptest.NewServer(http.NotFoundHandler())
	b.Close()

	c := NewClient(Config{Endpoints: []string{a.URL, b.URL}}, nil)
	res := c.Extract(context.Background(), testDoc(), provider.Context{})

	if res.OK || res.Connected {
		t.Errorf("Result = %+v, want neither OK nor Connected", res)
	}
	if len(res.Unreachable) != 2 {
		t.Errorf("Unreachable = %v, want both endpoints", res.Unreachable)
	}
}
