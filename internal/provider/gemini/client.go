package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/provider"
)

// ErrUnsupported marks content the primary provider cannot take: not
// text-like with enough content, and not image/PDF binary.
var ErrUnsupported = fmt.Errorf("gemini: unsupported document content")

// Config for the primary provider client.
type Config struct {
	Endpoint    string // default generativelanguage.googleapis.com
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	MaxTokens   int
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-001"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 3000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type part map[string]any

type generateRequest struct {
	SystemInstruction map[string]any `json:"systemInstruction"`
	Contents          []map[string]any `json:"contents"`
	GenerationConfig  map[string]any `json:"generationConfig"`
}

// ExtractDocument sends the document to the generateContent endpoint: text
// documents are inlined into the prompt, image/PDF bytes travel as
// base64 inline data. The answer is leniently parsed, schema-checked and
// normalized.
func (c *Client) ExtractDocument(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, error) {
	rid := uuid.New().String()
	start := time.Now()

	parts, textDoc, err := c.buildParts(doc, ectx)
	if err != nil {
		return extraction.Fields{}, err
	}

	body := generateRequest{
		SystemInstruction: map[string]any{
			"role":  "system",
			"parts": []part{{"text": provider.SystemPrompt()}},
		},
		Contents: []map[string]any{
			{"role": "user", "parts": parts},
		},
		GenerationConfig: map[string]any{
			"temperature":     c.cfg.Temperature,
			"maxOutputTokens": c.cfg.MaxTokens,
		},
	}

	c.logger.Info("provider.gemini.request",
		"req_id", rid,
		"model", c.cfg.Model,
		"file", doc.Name,
		"format", string(doc.Format),
		"text_len", len(textDoc),
	)

	raw, err := c.post(ctx, body)
	if err != nil {
		c.logger.Error("provider.gemini.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return extraction.Fields{}, err
	}

	text, err := candidateText(raw)
	if err != nil {
		c.logger.Error("provider.gemini.decode_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return extraction.Fields{}, err
	}

	parsed := extraction.ParseJSONLenient([]byte(text))
	if vErr := extraction.ValidateAgainstSchema(extraction.BuildJSONSchema(), []byte(text)); vErr != nil {
		// Advisory: normalization tolerates drift, but drift is worth a trail.
		c.logger.Warn("provider.gemini.schema_mismatch", "req_id", rid, "error", vErr)
	}

	preview := "Documento analisado com Gemini (" + doc.Name + ")"
	chars := 0
	if textDoc != "" {
		preview = provider.ClipText(textDoc, 500)
		chars = len(textDoc)
	}
	fields := extraction.Normalize(parsed, &extraction.Fields{TextPreview: preview})
	// The count reflects the text actually sent, never the model's own
	// estimate; binary documents pin zero.
	fields.TotalCharacters = chars

	c.logger.Info("provider.gemini.ok",
		"req_id", rid,
		"file", doc.Name,
		"confidence", fields.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}

func (c *Client) buildParts(doc provider.Document, ectx provider.Context) ([]part, string, error) {
	prompt := provider.UserPrompt(ectx, doc.Name)

	if doc.Format == constants.FormatText && len(doc.Text) > provider.MinTextLength {
		inline := prompt + "\n\nCONTEÚDO DO DOCUMENTO:\n" + provider.ClipText(doc.Text, provider.MaxInlineTextChars)
		return []part{{"text": inline}}, doc.Text, nil
	}

	if doc.Format == constants.FormatPDF || doc.Format == constants.FormatImage {
		mime := doc.MIME
		if doc.Format == constants.FormatPDF {
			mime = "application/pdf"
		} else if mime == "" {
			mime = "application/octet-stream"
		}
		return []part{
			{"inline_data": map[string]string{
				"mime_type": mime,
				"data":      base64.StdEncoding.EncodeToString(doc.Bytes),
			}},
			{"text": prompt},
		}, "", nil
	}

	return nil, "", ErrUnsupported
}

func (c *Client) post(ctx context.Context, body generateRequest) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("gemini response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func candidateText(raw []byte) (string, error) {
	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		if p.Text != "" {
			b.WriteString(p.Text)
			b.WriteString("\n")
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}
	return text, nil
}
