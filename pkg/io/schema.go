package io

// Schema is the JSON Schema every dataset document must satisfy.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["modules"],
  "definitions": {
    "code": {"type": "string", "minLength": 1},
    "ordinal": {"type": ["string", "number", "null"]},
    "tags": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}},
        {"type": "null"}
      ]
    },
    "prereq": {
      "oneOf": [
        {"$ref": "#/definitions/code"},
        {"type": "array", "items": {"$ref": "#/definitions/code"}, "minItems": 1}
      ]
    },
    "module": {
      "type": "object",
      "required": ["code", "level"],
      "properties": {
        "code": {"$ref": "#/definitions/code"},
        "title": {"type": "string"},
        "description": {"type": ["string", "null"]},
        "level": {"$ref": "#/definitions/ordinal"},
        "term": {"$ref": "#/definitions/ordinal"},
        "prereqs": {
          "oneOf": [
            {"type": "array", "items": {"$ref": "#/definitions/prereq"}},
            {"type": "null"}
          ]
        },
        "themes": {"$ref": "#/definitions/tags"},
        "groups": {"$ref": "#/definitions/tags"},
        "years": {"$ref": "#/definitions/tags"},
        "syllabus": {"type": ["string", "null"]},
        "lead": {"type": ["string", "null"]}
      }
    }
  },
  "properties": {
    "modules": {"type": "array", "items": {"$ref": "#/definitions/module"}},
    "ancillaryModules": {"type": "array", "items": {"type": "string"}},
    "themesToModules": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    }
  }
}`
