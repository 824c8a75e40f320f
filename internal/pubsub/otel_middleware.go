package pubsub

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys of relay traffic.
const (
	attrMatch      = attribute.Key("relay.match")
	attrFrom       = attribute.Key("relay.from")
	attrFrameType  = attribute.Key("relay.frame.type")
	attrMatchEvent = attribute.Key("relay.match.event")
	attrFrameSize  = attribute.Key("relay.frame.size")
)

// MetaFrom is the metadata key naming the player a frame came from.
const MetaFrom = "from"

// spanName names a span after the relay topic and the bus operation,
// e.g. "relay.frames publish".
func spanName(topic, op string) string {
	return topic + " " + op
}

// relayAttributes describes a bus message. Frames carry the protocol
// message type, match events their kind; anything else only its size.
func relayAttributes(topic string, msg *message.Message) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("messaging.system", "watermill"),
		attribute.String("messaging.destination", topic),
		attrMatch.String(msg.Metadata.Get(metaKeyMatch)),
		attrFrameSize.Int(len(msg.Payload)),
	}
	if from := msg.Metadata.Get(MetaFrom); from != "" {
		attrs = append(attrs, attrFrom.String(from))
	}

	var head struct {
		Type string `json:"type"`
		Kind string `json:"kind"`
	}
	if json.Unmarshal(msg.Payload, &head) != nil {
		return attrs
	}
	switch {
	case topic == TopicFrames && head.Type != "":
		attrs = append(attrs, attrFrameType.String(head.Type))
	case topic == TopicMatches && head.Kind != "":
		attrs = append(attrs, attrMatchEvent.String(head.Kind))
	}
	return attrs
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func contextOf(msg *message.Message) context.Context {
	if ctx := msg.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// TracingMiddleware records one consumer span per processed message. The
// handler sees the span in the message context.
func TracingMiddleware(tracer trace.Tracer) func(message.HandlerFunc) message.HandlerFunc {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			topic := msg.Metadata.Get(metaKeyTopic)
			ctx, span := tracer.Start(contextOf(msg), spanName(topic, "process"),
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(relayAttributes(topic, msg)...),
			)
			defer span.End()
			msg.SetContext(ctx)

			out, err := h(msg)
			if err != nil {
				fail(span, err)
			}
			return out, err
		}
	}
}

// tracingPublisher records one producer span per published message.
type tracingPublisher struct {
	message.Publisher
	tracer trace.Tracer
}

func newTracingPublisher(pub message.Publisher, tracer trace.Tracer) *tracingPublisher {
	return &tracingPublisher{Publisher: pub, tracer: tracer}
}

func (p *tracingPublisher) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, len(messages))
	for i, msg := range messages {
		ctx, span := p.tracer.Start(contextOf(msg), spanName(topic, "publish"),
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(relayAttributes(topic, msg)...),
		)
		msg.SetContext(ctx)
		spans[i] = span
	}

	err := p.Publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			fail(span, err)
		}
		span.End()
	}
	return err
}
