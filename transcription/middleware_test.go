package transcription

import (
	"context"
	"testing"

	"github.com/kbukum/voicekit/logger"
)

type namedMiddlewareProvider struct {
	stubProvider
	order *[]string
	label string
}

func (n *namedMiddlewareProvider) Transcribe(ctx context.Context, audio []byte, opts Options) (*Result, error) {
	*n.order = append(*n.order, n.label)
	return n.stubProvider.Transcribe(ctx, audio, opts)
}

func TestChain_AppliesOutermostFirst(t *testing.T) {
	var order []string
	tag := func(label string) Middleware {
		return func(inner Provider) Provider {
			return &namedMiddlewareProvider{
				stubProvider: stubProvider{name: inner.Name(), result: &Result{Text: "x"}},
				order:        &order,
				label:        label,
			}
		}
	}

	p := Chain(tag("outer"), tag("inner"))(&stubProvider{name: "base", result: &Result{Text: "x"}})

	if _, err := p.Transcribe(context.Background(), nil, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) == 0 || order[0] != "outer" {
		t.Errorf("expected outer middleware first, got %v", order)
	}
}

func TestWithLogging_PassesThrough(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, result: &Result{Text: "hello"}}
	p := WithLogging(logger.NewDefault())(inner)

	if p.Name() != "stub" {
		t.Errorf("expected name passthrough, got %s", p.Name())
	}
	if !p.IsAvailable(context.Background()) {
		t.Error("expected availability passthrough")
	}
	result, err := p.Transcribe(context.Background(), []byte("a"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("expected result passthrough, got %q", result.Text)
	}
	if inner.calls != 1 {
		t.Errorf("expected one inner call, got %d", inner.calls)
	}
}

func TestWithLogging_PropagatesError(t *testing.T) {
	inner := &stubProvider{name: "stub", err: NetworkError("down")}
	p := WithLogging(logger.NewDefault())(inner)

	_, err := p.Transcribe(context.Background(), []byte("a"), Options{})
	if KindOf(err) != KindNetwork {
		t.Errorf("expected network error through middleware, got %v", err)
	}
}

func TestWithTracing_PassesThrough(t *testing.T) {
	inner := &stubProvider{name: "stub", result: &Result{Text: "traced"}}
	p := WithTracing("voicekit-test")(inner)

	result, err := p.Transcribe(context.Background(), []byte("a"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "traced" {
		t.Errorf("expected result passthrough, got %q", result.Text)
	}
}
