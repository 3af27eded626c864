package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hks-corretora/proposal-intake/internal/cascade"
	"github.com/hks-corretora/proposal-intake/internal/common"
	"github.com/hks-corretora/proposal-intake/internal/provider/gemini"
	"github.com/hks-corretora/proposal-intake/internal/provider/openai"
	"github.com/hks-corretora/proposal-intake/internal/provider/relay"
	"github.com/hks-corretora/proposal-intake/internal/store"
)

// newTestServer wires the full stack with every provider pointing at a dead
// endpoint, so uploads degrade to contingency records deterministically.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	cfg := &common.Config{}
	cfg.Server.Addr = ":0"
	cfg.Server.MaxUploadBytes = 10 * 1024 * 1024
	cfg.Database.DSN = filepath.Join(t.TempDir(), "test.db")

	st, err := store.Open(context.Background(), cfg.Database.DSN, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	orch := cascade.New(
		gemini.NewClient(gemini.Config{Endpoint: dead.URL, APIKey: "k", Timeout: time.Second}, nil),
		relay.NewClient(relay.Config{Endpoints: []string{dead.URL}, Timeout: time.Second}, nil),
		openai.NewClient(openai.Config{}, nil), // no key: unavailable
		nil,
		cascade.WithBaseDelay(time.Millisecond),
	)
	svc := NewService(cfg, zap.NewNop(), orch, st)

	srv := httptest.NewServer(svc.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func uploadFile(t *testing.T, url, fileName string, fields map[string]string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 conteúdo de teste"))
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()

	resp, err := http.Post(url, w.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestProposalWorkflow(t *testing.T) {
	srv := newTestServer(t)

	// Create a corporate session.
	var sess map[string]any
	status := doJSON(t, http.MethodPost, srv.URL+"/api/sessions",
		map[string]string{"categoria": "pessoa_juridica"}, &sess)
	if status != http.StatusCreated {
		t.Fatalf("create session status = %d", status)
	}
	sessionID, _ := sess["id"].(string)
	if sessionID == "" {
		t.Fatal("missing session id")
	}
	base := srv.URL + "/api/sessions/" + sessionID

	// Set the structure: 3 lives, 2 partners, 1 employee.
	status = doJSON(t, http.MethodPut, base+"/structure", map[string]any{
		"categoria":           "pessoa_juridica",
		"total_vidas":         3,
		"total_socios":        2,
		"total_funcionarios":  1,
		"possui_funcionarios": true,
	}, &sess)
	if status != http.StatusOK {
		t.Fatalf("set structure status = %d", status)
	}
	beneficiaries, _ := sess["beneficiarios"].([]any)
	if len(beneficiaries) != 3 {
		t.Fatalf("beneficiaries = %d, want 3", len(beneficiaries))
	}

	// Upload a company document; every provider is dead, so this lands as a
	// contingency record and must still succeed.
	status, uploaded := uploadFile(t, base+"/documents", "contrato-social.pdf", map[string]string{
		"scope":    "empresa",
		"doc_type": "contrato_social",
	})
	if status != http.StatusCreated {
		t.Fatalf("upload status = %d: %v", status, uploaded)
	}
	fields, _ := uploaded["campos"].(map[string]any)
	if conf, _ := fields["confianca"].(string); conf != "baixa" {
		t.Errorf("confidence = %q, want baixa contingency", conf)
	}
	if notes, _ := fields["observacoes"].(string); !strings.Contains(notes, "contrato-social.pdf") {
		t.Errorf("notes = %q, must name the file", notes)
	}

	// Checklist: contrato_social is done by presence, even degraded.
	var checklist map[string]any
	if status := doJSON(t, http.MethodGet, base+"/checklist", nil, &checklist); status != http.StatusOK {
		t.Fatalf("checklist status = %d", status)
	}
	company, _ := checklist["empresa"].([]any)
	foundDone := false
	for _, item := range company {
		req, _ := item.(map[string]any)
		if req["id"] == "contrato_social" {
			foundDone, _ = req["done"].(bool)
		}
	}
	if !foundDone {
		t.Error("contrato_social must be done after the upload")
	}

	// Summary counts the document.
	var summary map[string]any
	doJSON(t, http.MethodGet, base+"/summary", nil, &summary)
	if n, _ := summary["total_documentos"].(float64); n != 1 {
		t.Errorf("total_documentos = %v, want 1", summary["total_documentos"])
	}

	// Export produces a spreadsheet.
	resp, err := http.Get(base + "/export")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheet") {
		t.Errorf("export content type = %q", ct)
	}
}

func TestUploadRejectsBadExtension(t *testing.T) {
	srv := newTestServer(t)
	status, body := uploadFile(t, srv.URL+"/api/extract", "malware.exe", nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %v", status, body)
	}
}

func TestUploadRejectsUnknownDocType(t *testing.T) {
	srv := newTestServer(t)

	var sess map[string]any
	doJSON(t, http.MethodPost, srv.URL+"/api/sessions",
		map[string]string{"categoria": "adesao"}, &sess)
	sessionID, _ := sess["id"].(string)

	status, body := uploadFile(t, srv.URL+"/api/sessions/"+sessionID+"/documents",
		"doc.pdf", map[string]string{"scope": "adesao", "doc_type": "tipo_inexistente"})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %v", status, body)
	}
}

func TestCreateSessionRejectsUnknownCategory(t *testing.T) {
	srv := newTestServer(t)
	status := doJSON(t, http.MethodPost, srv.URL+"/api/sessions",
		map[string]string{"categoria": "nope"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestGetMissingSession(t *testing.T) {
	srv := newTestServer(t)
	status := doJSON(t, http.MethodGet, srv.URL+"/api/sessions/desconhecida", nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}
