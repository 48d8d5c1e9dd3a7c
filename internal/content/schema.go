package content

// locationsSchema constrains configs/locations.json. Structural problems are
// configuration errors and abort startup; they are never reported at draw time.
const locationsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["locations"],
  "properties": {
    "locations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "enemies", "resource"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "name": { "type": "string", "minLength": 1 },
          "enemies": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["name", "hp", "damage", "xp", "coin"],
              "properties": {
                "name": { "type": "string", "minLength": 1 },
                "hp": { "type": "integer", "minimum": 1 },
                "damage": { "type": "integer", "minimum": 1 },
                "xp": { "type": "integer", "minimum": 0 },
                "coin": { "type": "integer", "minimum": 0 }
              }
            }
          },
          "resource": {
            "type": "object",
            "required": ["name", "verb"],
            "properties": {
              "name": { "type": "string", "minLength": 1 },
              "verb": { "type": "string", "minLength": 1 }
            }
          }
        }
      }
    }
  }
}`
