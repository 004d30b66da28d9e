package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// askRequestSchema constrains the POST /ask payload before it reaches the
// router. session_id and user_id are optional; the server generates them
// when absent.
const askRequestSchema = `{
	"type": "object",
	"properties": {
		"text": {
			"type": "string",
			"minLength": 1,
			"maxLength": 2000
		},
		"session_id": {
			"type": "string",
			"maxLength": 128
		},
		"user_id": {
			"type": "string",
			"maxLength": 128
		}
	},
	"required": ["text"],
	"additionalProperties": false
}`

var askSchema = gojsonschema.NewStringLoader(askRequestSchema)

// ValidateAskRequest checks a raw JSON body against the request schema and
// returns one message per violation.
func ValidateAskRequest(body []byte) ([]string, error) {
	result, err := gojsonschema.Validate(askSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		messages = append(messages, violation.String())
	}
	return messages, nil
}
