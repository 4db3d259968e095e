package protocol

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
)

const chatResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "status": {"type": "string"},
    "answer": {"type": "string"},
    "options": {"type": "array", "items": {"type": "string"}},
    "last_result_ids": {"type": ["array", "null"], "items": {"type": "string"}},
    "total_found": {"type": ["integer", "null"], "minimum": 0},
    "shown_count": {"type": ["integer", "null"], "minimum": 0},
    "job_id": {"type": ["string", "null"]},
    "message": {"type": ["string", "null"]}
  },
  "allOf": [
    {
      "if": {"properties": {"status": {"const": "clarify"}}, "required": ["status"]},
      "then": {"required": ["answer", "options"]}
    },
    {
      "if": {"properties": {"status": {"enum": ["complete", "error"]}}, "required": ["status"]},
      "then": {"required": ["answer"]}
    }
  ]
}`

const jobResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string"},
    "answer": {"type": "string"},
    "last_result_ids": {"type": ["array", "null"], "items": {"type": "string"}},
    "total_found": {"type": ["integer", "null"], "minimum": 0},
    "shown_count": {"type": ["integer", "null"], "minimum": 0},
    "message": {"type": ["string", "null"]}
  },
  "if": {"properties": {"status": {"const": "complete"}}},
  "then": {"required": ["answer"]}
}`

type validator struct {
	chat *gojsonschema.Schema
	job  *gojsonschema.Schema
}

func newValidator() (*validator, error) {
	chat, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(chatResponseSchema))
	if err != nil {
		return nil, err
	}
	job, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(jobResultSchema))
	if err != nil {
		return nil, err
	}
	return &validator{chat: chat, job: job}, nil
}

func check(schema *gojsonschema.Schema, body []byte, what string) error {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return core.ErrProtocol(core.CodeBadPayload, what+" is not valid JSON").WithCause(err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return core.ErrProtocol(core.CodeSchemaMismatch, what+" does not match schema: "+strings.Join(msgs, "; ")).
		WithDetail("errors", msgs)
}
