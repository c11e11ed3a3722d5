package usecases

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/samirrijal/horizonmask/internal/core/usecases"

func tracer() trace.Tracer { return otel.Tracer(tracerName) }

// fail marks span as failed and passes err through.
func fail(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
