package llm

import (
	"context"
	"testing"
	"time"

	"github.com/claimsift/claimsift/internal/cache"
	"github.com/claimsift/claimsift/internal/worker"
	"github.com/m-mizutani/goerr/v2"
)

type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Name() string                       { return "scripted" }
func (p *scriptedProvider) IsAvailable(_ context.Context) bool { return true }

func (p *scriptedProvider) Complete(_ context.Context, _ []Message, _ float64) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", goerr.New("script exhausted")
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestGateway_SuccessFirstAttempt(t *testing.T) {
	p := &scriptedProvider{responses: []string{"hello"}}
	g := NewGateway(p, nil)
	g.sleep = noSleep

	text, err := g.Complete(context.Background(), UserMessage("hi"), 0.1)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "hello" {
		t.Errorf("unexpected text %q", text)
	}
	if g.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", g.CallCount())
	}
}

func TestGateway_RetriesTransientErrors(t *testing.T) {
	p := &scriptedProvider{
		errs:      []error{goerr.New("flaky"), goerr.New("flaky again"), nil},
		responses: []string{"", "", "recovered"},
	}
	g := NewGateway(p, nil)
	g.sleep = noSleep

	text, err := g.Complete(context.Background(), UserMessage("hi"), 0.1)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "recovered" {
		t.Errorf("unexpected text %q", text)
	}
	if g.CallCount() != 3 {
		t.Errorf("expected 3 attempts counted, got %d", g.CallCount())
	}
}

func TestGateway_ExhaustionReturnsError(t *testing.T) {
	p := &scriptedProvider{
		errs: []error{
			goerr.New("rate limited", goerr.T(TagRateLimit)),
			goerr.New("rate limited", goerr.T(TagRateLimit)),
			goerr.New("rate limited", goerr.T(TagRateLimit)),
		},
	}
	g := NewGateway(p, nil, WithMaxAttempts(3))
	g.sleep = noSleep

	if _, err := g.Complete(context.Background(), UserMessage("hi"), 0.1); err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if p.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", p.calls)
	}
}

func TestGateway_FatalErrorsFailFast(t *testing.T) {
	for _, tagOpt := range []goerr.Option{goerr.T(TagAuth), goerr.T(TagContextLength)} {
		p := &scriptedProvider{
			errs: []error{goerr.New("fatal", tagOpt)},
		}
		g := NewGateway(p, nil)
		g.sleep = noSleep

		if _, err := g.Complete(context.Background(), UserMessage("hi"), 0.1); err == nil {
			t.Fatal("expected fatal error to surface")
		}
		if p.calls != 1 {
			t.Errorf("fatal class must not retry, got %d attempts", p.calls)
		}
	}
}

func TestGateway_RateLimitBackoffIsLarger(t *testing.T) {
	var delays []time.Duration
	record := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	p := &scriptedProvider{
		errs:      []error{goerr.New("429", goerr.T(TagRateLimit)), nil},
		responses: []string{"", "ok"},
	}
	g := NewGateway(p, nil)
	g.sleep = record
	if _, err := g.Complete(context.Background(), UserMessage("hi"), 0.1); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	p2 := &scriptedProvider{
		errs:      []error{goerr.New("boom"), nil},
		responses: []string{"", "ok"},
	}
	var genericDelays []time.Duration
	g2 := NewGateway(p2, nil)
	g2.sleep = func(_ context.Context, d time.Duration) error {
		genericDelays = append(genericDelays, d)
		return nil
	}
	if _, err := g2.Complete(context.Background(), UserMessage("hi"), 0.1); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if len(delays) != 1 || len(genericDelays) != 1 {
		t.Fatalf("expected one backoff each, got %d and %d", len(delays), len(genericDelays))
	}
	if delays[0] != genericDelays[0]*rateLimitMultiplier {
		t.Errorf("rate-limit backoff %v should be %dx generic %v",
			delays[0], rateLimitMultiplier, genericDelays[0])
	}
}

func TestGateway_CacheSkipsProvider(t *testing.T) {
	p := &scriptedProvider{responses: []string{"cached answer"}}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	g := NewGateway(p, nil, WithCache(mem, time.Minute))
	g.sleep = noSleep

	ctx := context.Background()
	msgs := UserMessage("what year was Acme founded?")

	first, err := g.Complete(ctx, msgs, 0.1)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := g.Complete(ctx, msgs, 0.1)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if first != second {
		t.Errorf("cache returned different text: %q vs %q", first, second)
	}
	if p.calls != 1 {
		t.Errorf("expected provider hit once, got %d", p.calls)
	}
	if g.CallCount() != 1 {
		t.Errorf("cached responses must not count as calls, got %d", g.CallCount())
	}
}

func TestGateway_GovernorIsConsulted(t *testing.T) {
	gov := worker.NewGovernor(100, 2, 0)
	p := &scriptedProvider{responses: []string{"ok"}}
	g := NewGateway(p, gov)
	g.sleep = noSleep

	if _, err := g.Complete(context.Background(), UserMessage("hi"), 0.1); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if gov.CallsInWindow() != 1 {
		t.Errorf("expected 1 call recorded in governor window, got %d", gov.CallsInWindow())
	}
	if gov.InFlight() != 0 {
		t.Errorf("expected slot released, got %d in flight", gov.InFlight())
	}
}

func TestBackoffDelay_Bounds(t *testing.T) {
	if d := backoffDelay(0); d != backoffMin {
		t.Errorf("attempt 0 delay = %v, want %v", d, backoffMin)
	}
	if d := backoffDelay(10); d != backoffMax {
		t.Errorf("large attempt delay = %v, want cap %v", d, backoffMax)
	}
	if d := backoffDelay(4); d != 16*time.Second {
		t.Errorf("attempt 4 delay = %v, want 16s", d)
	}
}
