// Package telemetry provides the OpenTelemetry helpers used across the
// authentication core.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names.
const (
	TracerIAM = "authgate/services/iam"
)

// Common attribute keys.
const (
	AttrCredentialKind = "credential.kind"
	AttrIdentityRoles  = "identity.role_count"
	AttrEndpointURL    = "channel.endpoint_url"
	AttrPolicyID       = "policy.id"
	AttrRequestID      = "request.id"
)

// StartSpan creates a span for a service operation.
//
//	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Validate",
//	    attribute.String(telemetry.AttrPolicyID, policyID),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records err on the span and marks the span status.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
