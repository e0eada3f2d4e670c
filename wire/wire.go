// Package wire declares the cross-boundary adapter contracts: each
// wraps one client/server/producer/consumer operation in an Operation
// Scope, injecting or extracting trace context and correlation id on
// the carrier. Concrete bindings to specific transports are out of
// scope here — these are interfaces only, matching the design note
// that adapters are meant to be supplied per-transport by callers.
package wire

import (
	"context"

	"github.com/brightloom/telemetry/propagation"
)

// CorrelationHeaderName is the default header/metadata key carrying
// the correlation id across a wire boundary.
const CorrelationHeaderName = "x-correlation-id"

// ClientCall is what an outbound adapter wraps: perform the call,
// given a carrier already populated with the injected trace context.
type ClientCall func(ctx context.Context, carrier propagation.Carrier) error

// ServerHandler is what an inbound adapter wraps: handle the call,
// given the extracted trace context already bound as the ambient
// parent and the correlation id already bound via CorrelationContext.
type ServerHandler func(ctx context.Context) error

// HTTPClientAdapter wraps one outbound HTTP call.
type HTTPClientAdapter interface {
	Do(ctx context.Context, req HTTPRequestCarrier, call ClientCall) error
}

// HTTPServerAdapter wraps one inbound HTTP handler invocation.
type HTTPServerAdapter interface {
	Handle(ctx context.Context, req HTTPRequestCarrier, handler ServerHandler) error
}

// HTTPRequestCarrier is the minimal surface an HTTP adapter needs from
// a request: header get/set plus the route for suppression checks.
type HTTPRequestCarrier interface {
	propagation.Carrier
	Route() string
}

// RPCClientAdapter wraps one outbound RPC call.
type RPCClientAdapter interface {
	Do(ctx context.Context, method string, carrier propagation.Carrier, call ClientCall) error
}

// RPCServerAdapter wraps one inbound RPC method invocation.
type RPCServerAdapter interface {
	Handle(ctx context.Context, method string, carrier propagation.Carrier, handler ServerHandler) error
}

// SOAPClientAdapter wraps one outbound SOAP call.
type SOAPClientAdapter interface {
	Do(ctx context.Context, action string, carrier propagation.Carrier, call ClientCall) error
}

// SOAPServerAdapter wraps one inbound SOAP action invocation.
type SOAPServerAdapter interface {
	Handle(ctx context.Context, action string, carrier propagation.Carrier, handler ServerHandler) error
}

// DBCommandAdapter wraps one database command execution — no carrier
// is involved, only Operation Scope bookkeeping (Kind = Client).
type DBCommandAdapter interface {
	Execute(ctx context.Context, statementName string, call func(ctx context.Context) error) error
}

// MessageProducerAdapter wraps one outbound broker publish.
type MessageProducerAdapter interface {
	Publish(ctx context.Context, topic string, carrier propagation.Carrier, call ClientCall) error
}

// MessageConsumerAdapter wraps one inbound broker delivery.
type MessageConsumerAdapter interface {
	Consume(ctx context.Context, topic string, carrier propagation.Carrier, handler ServerHandler) error
}

// SuppressionRule reports whether a named endpoint (e.g. a health or
// reflection route) should be skipped from Operation Scope wrapping
// entirely.
type SuppressionRule func(endpointName string) bool

// DefaultSuppressionRule suppresses the conventional health/reflection
// endpoint names.
func DefaultSuppressionRule(name string) bool {
	switch name {
	case "/healthz", "/health", "grpc.health.v1.Health", "grpc.reflection.v1alpha.ServerReflection":
		return true
	default:
		return false
	}
}
