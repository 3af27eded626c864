package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/provider"
	"github.com/hks-corretora/proposal-intake/internal/provider/gemini"
	"github.com/hks-corretora/proposal-intake/internal/provider/openai"
	"github.com/hks-corretora/proposal-intake/internal/provider/relay"
)

// Primary is the first provider tried, with retry on transient failures.
type Primary interface {
	ExtractDocument(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, error)
}

// Secondary is the remote extraction service scanned over candidate endpoints.
type Secondary interface {
	Extract(ctx context.Context, doc provider.Document, ectx provider.Context) relay.Result
}

// Tertiary is the local model fallback. It only handles images and plain text.
type Tertiary interface {
	Available() bool
	ExtractDocument(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, error)
}

// Orchestrator runs the extraction cascade. Extract never returns an error to
// the caller: when every stage is exhausted it emits a contingency record so
// the upload is acknowledged and the session can move on.
type Orchestrator struct {
	primary    Primary
	secondary  Secondary
	tertiary   Tertiary
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

type Option func(*Orchestrator)

func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.baseDelay = d
		}
	}
}

func New(primary Primary, secondary Secondary, tertiary Tertiary, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		primary:    primary,
		secondary:  secondary,
		tertiary:   tertiary,
		maxRetries: 3,
		baseDelay:  1500 * time.Millisecond,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Extract runs the full cascade for a single uploaded file. The returned
// Fields always carry something usable, even if only a contingency record.
func (o *Orchestrator) Extract(ctx context.Context, name, mime string, data []byte, ectx provider.Context) extraction.Fields {
	doc := provider.Document{
		Name:   name,
		MIME:   mime,
		Bytes:  data,
		Format: provider.DetectFormat(name, mime, data),
	}
	if doc.Format == constants.FormatText {
		doc.Text = provider.DecodeText(data)
	}

	o.logger.Info("cascade.start",
		"file", name, "format", string(doc.Format), "size", len(data),
		"scope", ectx.Scope, "doc_type", ectx.DocType)

	if fields, ok := o.runPrimary(ctx, doc, ectx); ok {
		return fields
	}

	res := o.secondary.Extract(ctx, doc, ectx)
	if res.OK {
		o.logger.Info("cascade.secondary_ok", "stage", string(constants.StageSecondary), "file", name, "status", res.StatusCode)
		return res.Fields
	}
	// A reachable endpoint that rejected the request (4xx) is a definitive
	// answer about this document; the local model would not fix it.
	if res.Connected && res.StatusCode >= 400 && res.StatusCode < 500 {
		o.logger.Warn("cascade.secondary_rejected",
			"stage", string(constants.StageSecondary), "file", name, "status", res.StatusCode)
		return o.contingency(doc, fmt.Sprintf("Serviço de extração rejeitou o documento (HTTP %d).", res.StatusCode))
	}
	if res.Connected {
		o.logger.Warn("cascade.secondary_failed",
			"stage", string(constants.StageSecondary), "file", name, "status", res.StatusCode)
	} else {
		o.logger.Warn("cascade.secondary_unreachable",
			"stage", string(constants.StageSecondary), "file", name, "endpoints", res.Unreachable)
	}

	if fields, ok := o.runTertiary(ctx, doc, ectx); ok {
		return fields
	}

	return o.contingency(doc, "Nenhum provedor de extração disponível no momento.")
}

// runPrimary tries the primary provider with exponential backoff on transient
// errors. Unsupported content skips the retries entirely.
func (o *Orchestrator) runPrimary(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, bool) {
	if o.primary == nil {
		return extraction.Fields{}, false
	}

	delay := o.baseDelay
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		fields, err := o.primary.ExtractDocument(ctx, doc, ectx)
		if err == nil {
			o.logger.Info("cascade.primary_ok", "stage", string(constants.StagePrimary), "file", doc.Name, "attempt", attempt+1)
			return fields, true
		}
		if errors.Is(err, gemini.ErrUnsupported) {
			o.logger.Info("cascade.primary_unsupported",
				"stage", string(constants.StagePrimary), "file", doc.Name, "format", string(doc.Format))
			return extraction.Fields{}, false
		}
		if !IsTransient(err) || attempt == o.maxRetries {
			o.logger.Warn("cascade.primary_failed",
				"stage", string(constants.StagePrimary), "file", doc.Name, "attempt", attempt+1, "error", err)
			return extraction.Fields{}, false
		}
		o.logger.Warn("cascade.primary_retry",
			"stage", string(constants.StagePrimary), "file", doc.Name, "attempt", attempt+1,
			"delay_ms", delay.Milliseconds(), "error", err)
		select {
		case <-ctx.Done():
			return extraction.Fields{}, false
		case <-time.After(delay):
		}
		delay *= 2
	}
	return extraction.Fields{}, false
}

func (o *Orchestrator) runTertiary(ctx context.Context, doc provider.Document, ectx provider.Context) (extraction.Fields, bool) {
	if o.tertiary == nil || !o.tertiary.Available() {
		o.logger.Info("cascade.tertiary_skipped", "stage", string(constants.StageTertiary), "file", doc.Name, "reason", "not configured")
		return extraction.Fields{}, false
	}
	fields, err := o.tertiary.ExtractDocument(ctx, doc, ectx)
	if err != nil {
		if errors.Is(err, openai.ErrUnsupported) {
			o.logger.Info("cascade.tertiary_unsupported",
				"stage", string(constants.StageTertiary), "file", doc.Name, "format", string(doc.Format))
		} else {
			o.logger.Warn("cascade.tertiary_failed", "stage", string(constants.StageTertiary), "file", doc.Name, "error", err)
		}
		return extraction.Fields{}, false
	}
	o.logger.Info("cascade.tertiary_ok", "stage", string(constants.StageTertiary), "file", doc.Name)
	return fields, true
}

// contingency builds the placeholder record used when no provider produced
// anything. It always carries the low-confidence marker and a note naming the
// file so brokers can re-run the extraction later.
func (o *Orchestrator) contingency(doc provider.Document, reason string) extraction.Fields {
	o.logger.Warn("cascade.contingency", "stage", string(constants.StageContingency), "file", doc.Name, "reason", reason)
	f := extraction.Empty()
	f.Notes = fmt.Sprintf("Documento recebido (%s). %s", doc.Name, reason)
	f.Confidence = constants.ConfidenceLow
	f.TextPreview = "Extração automática em modo de contingência."
	return f
}
