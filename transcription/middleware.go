package transcription

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/voicekit/logger"
)

// Middleware transforms a Provider by wrapping it. The returned provider
// delegates to the original while adding cross-cutting behavior.
type Middleware func(Provider) Provider

// Chain composes multiple middlewares into one. The first middleware is
// outermost: Chain(a, b)(p) is equivalent to a(b(p)).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Provider) Provider {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// WithLogging returns a Middleware that logs each Transcribe call with
// the provider name, audio size, duration, and outcome.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Provider) Provider {
		return &loggingProvider{inner: inner, log: log}
	}
}

type loggingProvider struct {
	inner Provider
	log   *logger.Logger
}

func (l *loggingProvider) Name() string                         { return l.inner.Name() }
func (l *loggingProvider) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingProvider) Transcribe(ctx context.Context, audio []byte, opts Options) (*Result, error) {
	start := time.Now()
	result, err := l.inner.Transcribe(ctx, audio, opts)

	fields := logger.Fields(
		logger.FieldProvider, l.inner.Name(),
		"audio_bytes", len(audio),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		l.log.Error("transcription failed", fields)
	} else {
		fields["text_len"] = len(result.Text)
		l.log.Debug("transcription ok", fields)
	}

	return result, err
}

// WithTracing returns a Middleware that creates an OpenTelemetry span
// around each Transcribe call. The span name is
// "transcription.{providerName}". Exporter wiring is the host's concern.
func WithTracing(tracerName string) Middleware {
	return func(inner Provider) Provider {
		return &tracingProvider{inner: inner, tracerName: tracerName}
	}
}

type tracingProvider struct {
	inner      Provider
	tracerName string
}

func (t *tracingProvider) Name() string                         { return t.inner.Name() }
func (t *tracingProvider) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingProvider) Transcribe(ctx context.Context, audio []byte, opts Options) (*Result, error) {
	ctx, span := otel.Tracer(t.tracerName).Start(ctx, "transcription."+t.inner.Name())
	defer span.End()

	span.SetAttributes(
		attribute.String("transcription.provider", t.inner.Name()),
		attribute.Int("transcription.audio_bytes", len(audio)),
	)

	result, err := t.inner.Transcribe(ctx, audio, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
	}

	return result, err
}
