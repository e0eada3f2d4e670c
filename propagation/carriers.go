package propagation

import (
	"net/http"

	"google.golang.org/grpc/metadata"
)

// HTTPHeaderCarrier adapts net/http.Header as a Carrier.
type HTTPHeaderCarrier http.Header

func (c HTTPHeaderCarrier) Get(key string) (string, bool) {
	v := http.Header(c).Get(key)
	return v, v != ""
}

func (c HTTPHeaderCarrier) Set(key, value string) {
	http.Header(c).Set(key, value)
}

// RPCMetadataCarrier adapts google.golang.org/grpc/metadata.MD as a
// Carrier, for RPC client/server interceptors.
type RPCMetadataCarrier metadata.MD

func (c RPCMetadataCarrier) Get(key string) (string, bool) {
	vals := metadata.MD(c).Get(key)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (c RPCMetadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

// TextMapCarrier is a generic string-keyed carrier for hosts without a
// richer native header type.
type TextMapCarrier map[string]string

func (c TextMapCarrier) Get(key string) (string, bool) {
	v, ok := c[key]
	return v, ok
}

func (c TextMapCarrier) Set(key, value string) { c[key] = value }
