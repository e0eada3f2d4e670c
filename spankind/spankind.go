// Package spankind defines the span Kind enumeration shared by the
// sampler family and the Operation Scope, kept standalone to avoid a
// dependency cycle between the two.
package spankind

// Kind classifies the role a span plays in a distributed operation.
type Kind int

const (
	Internal Kind = iota
	Client
	Server
	Producer
	Consumer
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case Client:
		return "client"
	case Server:
		return "server"
	case Producer:
		return "producer"
	case Consumer:
		return "consumer"
	default:
		return "unknown"
	}
}
