package propagation

import kafka "github.com/segmentio/kafka-go"

// KafkaHeaderCarrier adapts a message broker's byte-string headers
// (here, segmentio/kafka-go's Header slice) as a Carrier. traceparent
// and tracestate are carried as UTF-8-encoded byte-string values, per
// the broker/message header binding.
type KafkaHeaderCarrier struct {
	Headers *[]kafka.Header
}

func (c KafkaHeaderCarrier) Get(key string) (string, bool) {
	if c.Headers == nil {
		return "", false
	}
	for _, h := range *c.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func (c KafkaHeaderCarrier) Set(key, value string) {
	if c.Headers == nil {
		return
	}
	for i, h := range *c.Headers {
		if h.Key == key {
			(*c.Headers)[i].Value = []byte(value)
			return
		}
	}
	*c.Headers = append(*c.Headers, kafka.Header{Key: key, Value: []byte(value)})
}
