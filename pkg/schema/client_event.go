package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ClientEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "producthub",
	"name": "client_event",
	"fields": [
		{"name": "kind", "type": "string"},
		{"name": "client_id", "type": "string"},
		{"name": "product_id", "type": "long", "default": 0},
		{"name": "query", "type": "string", "default": ""},
		{"name": "category", "type": "string", "default": ""},
		{"name": "value", "type": "string", "default": ""},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type ClientEventV1 struct {
	Kind       string    `avro:"kind"`
	ClientID   string    `avro:"client_id"`
	ProductID  int64     `avro:"product_id"`
	Query      string    `avro:"query"`
	Category   string    `avro:"category"`
	Value      string    `avro:"value"`
	OccurredAt time.Time `avro:"occurred_at"`
}

func ClientEventV1Avro() avro.Schema {
	return avro.MustParse(ClientEventSchemaTextV1)
}
