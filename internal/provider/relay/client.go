package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/provider"
)

// Result reports what happened across the candidate endpoints. Reachability
// and HTTP outcome are deliberately separate: a reachable-but-erroring
// endpoint short-circuits failover differently from a fully unreachable one.
type Result struct {
	OK          bool
	Connected   bool
	StatusCode  int
	Fields      extraction.Fields
	Unreachable []string
}

// Config for the secondary extraction service client.
type Config struct {
	Endpoints []string
	Timeout   time.Duration
}

// Client forwards the raw upload to a sibling extraction service, trying
// each candidate endpoint in order and succeeding on the first reachable
// one regardless of its HTTP outcome.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

const extractPath = "/api/v1/pdf/extrair"

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
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

// Extract posts the file as multipart form data to each candidate endpoint
// in order. The first endpoint that answers at all ends the scan: a 2xx body
// is normalized into Fields, anything else is recorded as a connected
// failure with its status code.
func (c *Client) Extract(ctx context.Context, doc provider.Document, ectx provider.Context) Result {
	res := Result{StatusCode: http.StatusInternalServerError}

	body, contentType, err := buildForm(doc, ectx)
	if err != nil {
		c.logger.Error("provider.relay.form_error", "file", doc.Name, "error", err)
		return res
	}

	for _, endpoint := range c.cfg.Endpoints {
		raw, status, err := c.post(ctx, endpoint, body, contentType)
		if err != nil {
			c.logger.Warn("provider.relay.unreachable", "endpoint", endpoint, "error", err)
			res.Unreachable = append(res.Unreachable, endpoint)
			continue
		}

		res.Connected = true
		res.StatusCode = status

		if status >= 200 && status < 300 {
			parsed := extraction.ParseJSONLenient(raw)
			res.Fields = extraction.Normalize(parsed, nil)
			res.OK = true
			c.logger.Info("provider.relay.ok", "endpoint", endpoint, "file", doc.Name, "status", status)
			return res
		}

		c.logger.Warn("provider.relay.http_failure",
			"endpoint", endpoint, "file", doc.Name, "status", status)
		return res
	}

	return res
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte, contentType string) ([]byte, int, error) {
	url := strings.TrimRight(endpoint, "/") + extractPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func(b io.ReadCloser) {
		if cerr := b.Close(); cerr != nil {
			c.logger.Warn("relay response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	return raw, resp.StatusCode, nil
}

func buildForm(doc provider.Document, ectx provider.Context) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Name))
	mime := doc.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	header.Set("Content-Type", mime)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(doc.Bytes); err != nil {
		return nil, "", err
	}

	ctxJSON, err := json.Marshal(ectx)
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("context", string(ctxJSON)); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
