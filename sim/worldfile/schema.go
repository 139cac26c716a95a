package worldfile

// JSON Schemas for the two world-directory files. Validation happens before
// any node construction so malformed input fails with a pointer to the
// offending field rather than a structural error mid-build.

const worldSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rooms"],
  "additionalProperties": false,
  "properties": {
    "map_file": {"type": "string"},
    "rooms": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "bounds": {
            "type": "object",
            "required": ["x", "y", "width", "height"],
            "additionalProperties": false,
            "properties": {
              "x": {"type": "integer", "minimum": 0},
              "y": {"type": "integer", "minimum": 0},
              "width": {"type": "integer", "minimum": 1},
              "height": {"type": "integer", "minimum": 1}
            }
          }
        }
      }
    },
    "portals": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {"type": "string", "minLength": 1},
        "minItems": 2,
        "maxItems": 2
      }
    },
    "objects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "room_id", "type"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "room_id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "state": {"type": "string"},
          "attrs": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          }
        }
      }
    },
    "transitions": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["state", "verb", "next"],
          "additionalProperties": false,
          "properties": {
            "state": {"type": "string"},
            "verb": {"type": "string", "enum": ["USE", "OPEN", "CLOSE", "TAKE", "DROP"]},
            "next": {"type": "string"},
            "success": {"type": "boolean"},
            "narration_key": {"type": "string"}
          }
        }
      }
    }
  }
}`

const charactersSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["characters"],
  "additionalProperties": false,
  "properties": {
    "characters": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "start_room_id"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "start_room_id": {"type": "string", "minLength": 1},
          "patrol_route": {
            "type": "array",
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    }
  }
}`
