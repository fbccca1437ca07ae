// Package schema validates a MigrationData snapshot's shape and required
// fields before it is written to or after it is read from disk (§4.7,
// §6 "schema-validated"), using gojsonschema the way the rest of the
// pack's JSON-heavy services validate documents before trusting them.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// itemsSchema constrains items.json's shape: every item needs a system
// block with codename/language/type/collection/workflow codenames, and at
// most the documented element/version shape.
const itemsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["system", "versions"],
        "properties": {
          "system": {
            "type": "object",
            "required": ["codename", "language", "type", "collection", "workflow"],
            "properties": {
              "name": {"type": "string"},
              "codename": {"type": "string", "minLength": 1},
              "language": {"type": "object", "required": ["codename"]},
              "type": {"type": "object", "required": ["codename"]},
              "collection": {"type": "object", "required": ["codename"]},
              "workflow": {"type": "object", "required": ["codename"]}
            }
          },
          "versions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["elements", "workflow_step"],
              "properties": {
                "elements": {"type": "object"},
                "workflow_step": {"type": "object", "required": ["codename"]}
              }
            }
          }
        }
      }
    }
  }
}`

// assetsManifestSchema constrains the shape of assets.zip's manifest.json.
const assetsManifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["assets"],
  "properties": {
    "assets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["codename", "filename", "archive_entry"],
        "properties": {
          "codename": {"type": "string", "minLength": 1},
          "filename": {"type": "string", "minLength": 1},
          "archive_entry": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var (
	itemsLoader   = gojsonschema.NewStringLoader(itemsSchema)
	manifestLoader = gojsonschema.NewStringLoader(assetsManifestSchema)
)

// ValidateItems validates raw items.json bytes against the items schema.
func ValidateItems(data []byte) error {
	return validate(itemsLoader, data)
}

// ValidateAssetsManifest validates the assets archive's manifest bytes.
func ValidateAssetsManifest(data []byte) error {
	return validate(manifestLoader, data)
}

func validate(schemaLoader gojsonschema.JSONLoader, data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	documentLoader := gojsonschema.NewGoLoader(v)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("snapshot failed schema validation: %v", msgs)
	}
	return nil
}
