package otel

import (
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/commercesync/internal/common/constants"
)

var Tracer = otel.Tracer(
	constants.AppSyncService,
	trace.WithInstrumentationAttributes(semconv.ServiceName(constants.AppSyncService)),
)
