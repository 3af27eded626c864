package openai

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

// ErrUnsupported marks content this provider does not handle locally: PDFs
// (no local PDF parsing) and text too short to be worth a pass.
var ErrUnsupported = fmt.Errorf("openai: unsupported document content")

// minLocalTextLength gates the local text pass; shorter decoded content goes
// straight to contingency.
const minLocalTextLength = 30

// Config for the tertiary local provider client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
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

// Available reports whether the local provider is configured at all.
func (c *Client) Available() bool {
	return c.cfg.APIKey != ""
}

// ExtractDocument handles image and plain-text documents only.
func (c *Client) ExtractDocument(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, error) {
	if !c.Available() {
		return extraction.Fields{}, fmt.Errorf("openai: no API key configured")
	}

	switch doc.Format {
	case constants.FormatImage:
		return c.extractImage(ctx, doc, ectx)
	case constants.FormatText:
		if len(doc.Text) >= minLocalTextLength {
			return c.extractText(ctx, doc, ectx)
		}
		return extraction.Fields{}, ErrUnsupported
	default:
		return extraction.Fields{}, ErrUnsupported
	}
}

func (c *Client) extractImage(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, error) {
	mime := doc.MIME
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(doc.Bytes)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": provider.SystemPrompt()},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": provider.UserPrompt(ectx, doc.Name)},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
	}

	parsed, err := c.complete(ctx, body, doc.Name)
	if err != nil {
		return extraction.Fields{}, err
	}
	fields := extraction.Normalize(parsed, &extraction.Fields{
		TextPreview: "Análise visual do documento em imagem",
	})
	// No text was read from an image; a model-reported count is noise.
	fields.TotalCharacters = 0
	return fields, nil
}

func (c *Client) extractText(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, error) {
	limited := provider.ClipText(doc.Text, 12000)
	prompt := provider.UserPrompt(ectx, doc.Name) + "\n\nDOCUMENTO:\n" + limited

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": provider.SystemPrompt()},
			{"role": "user", "content": prompt},
		},
	}

	parsed, err := c.complete(ctx, body, doc.Name)
	if err != nil {
		return extraction.Fields{}, err
	}

	preview := limited
	if len(limited) > 500 {
		preview = limited[:500] + "..."
	}
	fields := extraction.Normalize(parsed, &extraction.Fields{TextPreview: preview})
	fields.TotalCharacters = len(doc.Text)
	return fields, nil
}

func (c *Client) complete(ctx context.Context, body map[string]any, fileName string) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("provider.openai.request", "req_id", rid, "model", c.cfg.Model, "file", fileName)

	raw, err := c.post(ctx, body)
	if err != nil {
		c.logger.Error("provider.openai.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	if vErr := extraction.ValidateAgainstSchema(extraction.BuildJSONSchema(), []byte(content)); vErr != nil {
		c.logger.Warn("provider.openai.schema_mismatch", "req_id", rid, "error", vErr)
	}

	c.logger.Info("provider.openai.ok",
		"req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return extraction.ParseJSONLenient([]byte(content)), nil
}

func (c *Client) post(ctx context.Context, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(b io.ReadCloser) {
		if cerr := b.Close(); cerr != nil {
			c.logger.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
