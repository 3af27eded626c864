package cascade

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/provider"
	"github.com/hks-corretora/proposal-intake/internal/provider/relay"
)

type fakePrimary struct {
	calls  int
	errs   []error
	fields extraction.Fields
}

func (p *fakePrimary) ExtractDocument(_ context.Context, _ provider.Document, _ provider.Context) (extraction.Fields, error) {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return extraction.Fields{}, err
		}
	}
	return p.fields, nil
}

type fakeSecondary struct {
	calls  int
	result relay.Result
}

func (s *fakeSecondary) Extract(_ context.Context, _ provider.Document, _ provider.Context) relay.Result {
	s.calls++
	return s.result
}

type fakeTertiary struct {
	calls     int
	available bool
	fields    extraction.Fields
	err       error
}

func (t *fakeTertiary) Available() bool { return t.available }

func (t *fakeTertiary) ExtractDocument(_ context.Context, _ provider.Document, _ provider.Context) (extraction.Fields, error) {
	t.calls++
	if t.err != nil {
		return extraction.Fields{}, t.err
	}
	return t.fields, nil
}

func fastOrchestrator(p Primary, s Secondary, t Tertiary) *Orchestrator {
	return New(p, s, t, nil, WithBaseDelay(time.Millisecond))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("gemini status 429: rate limited"), true},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("quota exceeded for model"), true},
		{errors.New("model UNAVAILABLE right now"), true},
		{errors.New("gemini status 503: overloaded"), true},
		{errors.New("gemini status 400: bad request"), false},
		{errors.New("gemini status 401: invalid key"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPrimarySuccessSkipsFallbacks(t *testing.T) {
	want := extraction.Empty()
	want.Operator = "UNIMED"
	primary := &fakePrimary{fields: want}
	secondary := &fakeSecondary{}
	tertiary := &fakeTertiary{available: true}

	got := fastOrchestrator(primary, secondary, tertiary).
		Extract(context.Background(), "contrato.pdf", "application/pdf", []byte("%PDF-1.4"), provider.Context{})

	if got.Operator != "UNIMED" {
		t.Errorf("Operator = %q, want UNIMED", got.Operator)
	}
	if secondary.calls != 0 || tertiary.calls != 0 {
		t.Errorf("fallbacks called: secondary=%d tertiary=%d", secondary.calls, tertiary.calls)
	}
}

func TestPrimaryRetriesTransientThenSucceeds(t *testing.T) {
	want := extraction.Empty()
	want.FullName = "Maria Silva"
	primary := &fakePrimary{
		errs:   []error{errors.New("status 429"), errors.New("status 503"), nil},
		fields: want,
	}
	got := fastOrchestrator(primary, &fakeSecondary{}, &fakeTertiary{}).
		Extract(context.Background(), "rg.jpg", "image/jpeg", []byte("img"), provider.Context{})

	if primary.calls != 3 {
		t.Errorf("primary calls = %d, want 3", primary.calls)
	}
	if got.FullName != "Maria Silva" {
		t.Errorf("FullName = %q, want Maria Silva", got.FullName)
	}
}

func TestPrimaryNonTransientFailsOver(t *testing.T) {
	secondaryFields := extraction.Empty()
	secondaryFields.Operator = "AMIL"
	primary := &fakePrimary{errs: []error{errors.New("status 400: bad request"), errors.New("should not retry")}}
	secondary := &fakeSecondary{result: relay.Result{OK: true, Connected: true, StatusCode: 200, Fields: secondaryFields}}

	got := fastOrchestrator(primary, secondary, &fakeTertiary{}).
		Extract(context.Background(), "doc.pdf", "application/pdf", []byte("%PDF"), provider.Context{})

	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1 (no retry on non-transient)", primary.calls)
	}
	if got.Operator != "AMIL" {
		t.Errorf("Operator = %q, want AMIL from secondary", got.Operator)
	}
}

func TestSecondary4xxGoesToContingencyNotTertiary(t *testing.T) {
	primary := &fakePrimary{errs: []error{errors.New("status 400")}}
	secondary := &fakeSecondary{result: relay.Result{Connected: true, StatusCode: 422}}
	tertiary := &fakeTertiary{available: true}

	got := fastOrchestrator(primary, secondary, tertiary).
		Extract(context.Background(), "doc.pdf", "application/pdf", []byte("%PDF"), provider.Context{})

	if tertiary.calls != 0 {
		t.Errorf("tertiary called %d times on a reachable 4xx, want 0", tertiary.calls)
	}
	if got.Confidence != constants.ConfidenceLow {
		t.Errorf("Confidence = %q, want %q", got.Confidence, constants.ConfidenceLow)
	}
}

func TestSecondary5xxFallsToTertiary(t *testing.T) {
	want := extraction.Empty()
	want.FullName = "João Souza"
	primary := &fakePrimary{errs: []error{errors.New("status 401")}}
	secondary := &fakeSecondary{result: relay.Result{Connected: true, StatusCode: 502}}
	tertiary := &fakeTertiary{available: true, fields: want}

	got := fastOrchestrator(primary, secondary, tertiary).
		Extract(context.Background(), "foto.png", "image/png", []byte("img"), provider.Context{})

	if tertiary.calls != 1 {
		t.Errorf("tertiary calls = %d, want 1", tertiary.calls)
	}
	if got.FullName != "João Souza" {
		t.Errorf("FullName = %q, want João Souza", got.FullName)
	}
}

func TestSecondaryUnreachableFallsToTertiary(t *testing.T) {
	want := extraction.Empty()
	want.Operator = "BRADESCO"
	primary := &fakePrimary{errs: []error{errors.New("status 401")}}
	secondary := &fakeSecondary{result: relay.Result{Unreachable: []string{"http://127.0.0.1:8000"}}}
	tertiary := &fakeTertiary{available: true, fields: want}

	got := fastOrchestrator(primary, secondary, tertiary).
		Extract(context.Background(), "foto.png", "image/png", []byte("img"), provider.Context{})

	if got.Operator != "BRADESCO" {
		t.Errorf("Operator = %q, want BRADESCO", got.Operator)
	}
}

// The cascade guarantee: every provider failing still yields a usable,
// low-confidence record naming the file.
func TestAllProvidersFailYieldsContingency(t *testing.T) {
	primary := &fakePrimary{errs: []error{
		errors.New("status 429"), errors.New("status 429"),
		errors.New("status 429"), errors.New("status 429"),
	}}
	secondary := &fakeSecondary{result: relay.Result{Unreachable: []string{"http://localhost:8000"}}}
	tertiary := &fakeTertiary{available: true, err: errors.New("local model offline")}

	got := fastOrchestrator(primary, secondary, tertiary).
		Extract(context.Background(), "contrato-social.pdf", "application/pdf", []byte("%PDF"), provider.Context{})

	if got.Confidence != constants.ConfidenceLow {
		t.Errorf("Confidence = %q, want %q", got.Confidence, constants.ConfidenceLow)
	}
	if !strings.Contains(got.Notes, "contrato-social.pdf") {
		t.Errorf("Notes = %q, must name the original file", got.Notes)
	}
	if got.Ages == nil || len(got.Ages) != 0 {
		t.Errorf("Ages = %v, want empty", got.Ages)
	}
	if primary.calls != 4 {
		t.Errorf("primary calls = %d, want 4 (initial + 3 retries)", primary.calls)
	}
}

func TestTertiarySkippedWhenUnavailable(t *testing.T) {
	primary := &fakePrimary{errs: []error{errors.New("status 401")}}
	secondary := &fakeSecondary{result: relay.Result{Connected: true, StatusCode: 500}}
	tertiary := &fakeTertiary{available: false}

	got := fastOrchestrator(primary, secondary, tertiary).
		Extract(context.Background(), "doc.txt", "text/plain", []byte(strings.Repeat("x", 50)), provider.Context{})

	if tertiary.calls != 0 {
		t.Errorf("tertiary calls = %d, want 0 when unavailable", tertiary.calls)
	}
	if got.Confidence != constants.ConfidenceLow {
		t.Errorf("Confidence = %q, want contingency low", got.Confidence)
	}
}
