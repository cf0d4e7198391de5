package entity

import (
	"encoding/json"
	"errors"

	"github.com/xeipuuv/gojsonschema"
)

// Spec is the JSON form of a processing configuration, specifying which diff to compute
// and how tagged values should be decoded, e.g.
//
//	{
//	  "diffMode": "updated",
//	  "options": { "wrapSets": true, "wrapNumbers": false }
//	}
//
// "diffMode" can be a boolean (false: no diff, true: full diff) or a string as handled by
// ParseDiffMode, where any non-empty name other than "added", "deleted", "updated" and
// "detailed" gives a full diff. Options not known by the decoder are kept in DecodeOptions.Extra.
type Spec struct {
	DiffMode DiffMode      `json:"diffMode"`
	Options  DecodeOptions `json:"options"`
}

// NewSpec creates a new Spec from JSON, validated against the spec JSON schema.
func NewSpec(specData []byte) (*Spec, error) {
	var spec Spec
	if len(specData) == 0 {
		return nil, errors.New("no spec data provided")
	}

	if err := validateRawJson(specData); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(specData, &spec); err != nil {
		return nil, err
	}

	var raw struct {
		Options map[string]any `json:"options"`
	}
	if err := json.Unmarshal(specData, &raw); err != nil {
		return nil, err
	}
	for key, value := range raw.Options {
		switch key {
		case "wrapSets", "wrapNumbers", "convertEmptyValues":
		default:
			if spec.Options.Extra == nil {
				spec.Options.Extra = make(map[string]any)
			}
			spec.Options.Extra[key] = value
		}
	}
	return &spec, nil
}

func (s *Spec) JSON() []byte {
	specData, _ := json.Marshal(s)
	return specData
}

func validateRawJson(specData []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(specSchema)
	documentLoader := gojsonschema.NewBytesLoader(specData)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		specErrors := ""
		for _, desc := range result.Errors() {
			specErrors += " - " + desc.String()
		}
		err = errors.New(specErrors)
	}
	return err
}

var specSchema = []byte(`
{
  "$schema": "http://json-schema.org/draft-07/schema",
  "type": "object",
  "properties": {
    "diffMode": {
      "type": [
        "boolean",
        "string"
      ]
    },
    "options": {
      "type": "object",
      "properties": {
        "wrapSets": {
          "type": "boolean"
        },
        "wrapNumbers": {
          "type": "boolean"
        },
        "convertEmptyValues": {
          "type": "boolean"
        }
      }
    }
  },
  "additionalProperties": false
}
`)
