package moduleconf

// documentSchema is the JSON Schema every module configuration document must
// satisfy before it is accepted. Compiled once per Loader.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["label", "resource", "table", "form"],
  "properties": {
    "label": {"type": "string", "minLength": 1},
    "resource": {"type": "string", "minLength": 1, "pattern": "^[a-z][a-z0-9_]*$"},
    "global": {"type": "boolean"},
    "datasource": {
      "type": "object",
      "properties": {
        "tenant": {
          "type": "object",
          "required": ["field"],
          "properties": {"field": {"type": "string", "minLength": 1}}
        }
      }
    },
    "table": {
      "type": "object",
      "required": ["columns"],
      "properties": {
        "columns": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["field", "label"],
            "properties": {
              "field": {"type": "string", "minLength": 1},
              "label": {"type": "string", "minLength": 1},
              "type": {"type": "string"},
              "display": {"type": "string"}
            }
          }
        },
        "defaultSort": {"type": "string"}
      }
    },
    "form": {
      "type": "object",
      "required": ["fields"],
      "properties": {
        "fields": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["field", "label", "type"],
            "properties": {
              "field": {"type": "string", "minLength": 1},
              "label": {"type": "string", "minLength": 1},
              "type": {
                "type": "string",
                "enum": ["text", "email", "number", "date", "bool", "select", "relation", "json"]
              },
              "required": {"type": "boolean"},
              "options": {"type": "array"},
              "collection": {"type": "string"},
              "labelField": {"type": "string"},
              "filterByTenant": {"type": "boolean"}
            }
          }
        }
      }
    }
  }
}`
