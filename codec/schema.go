package codec

import "github.com/invopop/jsonschema"

// TextSchema 文本协议快照的 JSON Schema
func TextSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(new(textState))
	schema.Title = "Paddle Battle text snapshot"
	schema.Description = "Self-describing game state emitted by text-protocol engines"
	return schema
}
