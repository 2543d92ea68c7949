package httpclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema is the shape every backend reply must have:
// {"success": bool, "data": any, "message": string}.
const envelopeSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": ["string", "null"]}
  }
}`

var compiledEnvelope = mustCompileSchema(envelopeSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid envelope schema: %v", err))
	}
	return schema
}

// envelope is the server's reply wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// parseEnvelope validates body against the envelope schema before decoding
// it, so a missing or mistyped field is an error instead of a zero value.
func parseEnvelope(body []byte) (*envelope, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	result, err := compiledEnvelope.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("null")
	}

	return &env, nil
}
