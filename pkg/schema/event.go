package schema

import "time"

const SessionEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "session_event",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "session_id", "type": "string"},
		{"name": "type", "type": "string"},
		{"name": "role", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "entity_ids", "type": {"type": "array", "items": "string"}},
		{"name": "product_id", "type": "string"},
		{"name": "quantity", "type": "int"},
		{"name": "accepted", "type": "int"},
		{"name": "failed", "type": "int"},
		{"name": "rejected", "type": "int"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type SessionEventV1 struct {
	EventID    string    `avro:"event_id"`
	SessionID  string    `avro:"session_id"`
	Type       string    `avro:"type"`
	Role       string    `avro:"role"`
	Kind       string    `avro:"kind"`
	EntityIDs  []string  `avro:"entity_ids"`
	ProductID  string    `avro:"product_id"`
	Quantity   int       `avro:"quantity"`
	Accepted   int       `avro:"accepted"`
	Failed     int       `avro:"failed"`
	Rejected   int       `avro:"rejected"`
	OccurredAt time.Time `avro:"occurred_at"`
}
