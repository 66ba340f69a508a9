package aries

import (
	"strings"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/lainio/err2/try"
	"github.com/xeipuuv/gojsonschema"
)

// baseSchema is checked for every plaintext message.
const baseSchema = `{
  "type": "object",
  "required": ["@id", "@type"],
  "properties": {
    "@id": {"type": "string", "minLength": 1},
    "@type": {"type": "string", "minLength": 1},
    "~thread": {
      "type": "object",
      "properties": {
        "thid": {"type": "string"},
        "pthid": {"type": "string"}
      }
    }
  }
}`

const attachArray = `{
  "type": "array", "minItems": 1,
  "items": {
    "type": "object", "required": ["data"],
    "properties": {"data": {"type": "object", "required": ["base64"]}}
  }
}`

// schemas of the required fields by family/name of the required fields
var typeSchemas = map[string]string{
	"connections/invitation": `{
  "type": "object",
  "required": ["recipientKeys", "serviceEndpoint"],
  "properties": {
    "recipientKeys": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "serviceEndpoint": {"type": "string", "minLength": 1}
  }
}`,
	"connections/request":  connectionSchema,
	"connections/response": connectionSchema,
	"issue-credential/offer-credential": `{
  "type": "object", "required": ["offers~attach"],
  "properties": {"offers~attach": ` + attachArray + `}
}`,
	"issue-credential/request-credential": `{
  "type": "object", "required": ["requests~attach"],
  "properties": {"requests~attach": ` + attachArray + `}
}`,
	"issue-credential/issue-credential": `{
  "type": "object", "required": ["credentials~attach"],
  "properties": {"credentials~attach": ` + attachArray + `}
}`,
	"present-proof/request-presentation": `{
  "type": "object", "required": ["request_presentations~attach"],
  "properties": {"request_presentations~attach": ` + attachArray + `}
}`,
	"present-proof/presentation": `{
  "type": "object", "required": ["presentations~attach"],
  "properties": {"presentations~attach": ` + attachArray + `}
}`,
	"routing/forward": `{
  "type": "object", "required": ["to", "msg"],
  "properties": {
    "to": {"type": "string", "minLength": 1},
    "msg": {"type": ["object", "string"]}
  }
}`,
	"payments/receipt": `{
  "type": "object", "required": ["~payment_receipt"],
  "properties": {
    "~payment_receipt": {
      "type": "object", "required": ["request_id", "transaction_id"],
      "properties": {
        "request_id": {"type": "string", "minLength": 1},
        "transaction_id": {"type": "string", "minLength": 1}
      }
    }
  }
}`,
}

const connectionSchema = `{
  "type": "object", "required": ["connection"],
  "properties": {
    "connection": {
      "type": "object", "required": ["DID"],
      "properties": {"DID": {"type": "string", "minLength": 1}}
    }
  }
}`

var (
	base    = compile(baseSchema)
	schemas = compileAll(typeSchemas)
)

func compile(s string) *gojsonschema.Schema {
	return try.To1(gojsonschema.NewSchema(gojsonschema.NewStringLoader(s)))
}

func compileAll(src map[string]string) map[string]*gojsonschema.Schema {
	m := make(map[string]*gojsonschema.Schema, len(src))
	for name, s := range src {
		m[name] = compile(s)
	}
	return m
}

func validate(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fault.Invalid("validation: %v", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fault.Invalid("message shape: %s", strings.Join(errs, "; "))
	}
	return nil
}
