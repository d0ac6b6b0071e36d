package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/commercesync/internal/common/constants"
)

var Tracer = otel.Tracer(constants.AppMainCommerce)

func RecordError(err error, span trace.Span, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err, trace.WithAttributes(attrs...))
}
