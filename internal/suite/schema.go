package suite

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	yaml "gopkg.in/yaml.v3"
)

func GetJSONSchema() string {
	return `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["suite_name"],
		"properties": {
			"suite_name": {
				"type": "string",
				"minLength": 1
			},
			"platform": {
				"type": "string"
			},
			"description": {
				"type": "string"
			},
			"extends": {
				"type": "array",
				"items": {
					"type": "string",
					"minLength": 1
				}
			},
			"tests": {
				"type": "array",
				"items": {
					"$ref": "#/definitions/test"
				}
			}
		},
		"anyOf": [
			{
				"required": ["tests"],
				"properties": {
					"tests": {
						"minItems": 1
					}
				}
			},
			{
				"required": ["extends"],
				"properties": {
					"extends": {
						"minItems": 1
					}
				}
			}
		],
		"definitions": {
			"test": {
				"type": "object",
				"required": ["id", "factor", "requirement", "target_type"],
				"properties": {
					"id": {
						"type": "string",
						"minLength": 1
					},
					"factor": {
						"type": "string",
						"minLength": 1
					},
					"requirement": {
						"type": "string",
						"minLength": 1
					},
					"target_type": {
						"type": "string",
						"enum": ["platform", "table", "column"]
					},
					"query": {
						"type": "string",
						"minLength": 1
					},
					"query_template": {
						"type": "string",
						"minLength": 1
					},
					"description": {
						"type": "string"
					}
				},
				"oneOf": [
					{
						"required": ["query"],
						"not": {
							"required": ["query_template"]
						}
					},
					{
						"required": ["query_template"],
						"not": {
							"required": ["query"]
						}
					}
				]
			}
		}
	}`
}

// ValidateYAMLWithSchema checks one suite document against the schema before
// anything is registered. A single invalid test invalidates the whole file.
func ValidateYAMLWithSchema(yamlPayload []byte) error {
	var data interface{}
	if err := yaml.Unmarshal(yamlPayload, &data); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(GetJSONSchema())
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		var errMsg string
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("- %s\n", desc)
		}
		return fmt.Errorf("schema validation failed:\n%s", errMsg)
	}

	return nil
}
