// Package apidocs registers the OpenAPI document for the HTTP API with swag.
// The document is served under /swagger when built with -tags=swagger and
// printed by `expertchat openapi`.
package apidocs

import "github.com/swaggo/swag"

// InstanceName is the swag registry key for this API.
const InstanceName = "expertchat"

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "expertchat API",
	Description:      "Chat with fine-tuned expert models. One expert is resident at a time.",
	InfoInstanceName: InstanceName,
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// Doc renders the document with the current SwaggerInfo.
func Doc() string { return SwaggerInfo.ReadDoc() }

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/models": {
            "get": {
                "tags": ["chat"],
                "summary": "List experts",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/api/model/select": {
            "post": {
                "tags": ["chat"],
                "summary": "Select an expert",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SelectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SelectResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/chat": {
            "post": {
                "tags": ["chat"],
                "summary": "Chat",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/chat/stream": {
            "post": {
                "tags": ["chat"],
                "summary": "Chat (streaming)",
                "description": "Server-sent events, one of {\"token\"}, {\"done\"} or {\"error\"} per event.",
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StreamEvent"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "tags": ["ops"],
                "summary": "Health",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.Expert": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "cooking"},
                "name": {"type": "string", "example": "Chef"},
                "adapter_path": {"type": "string", "x-nullable": true, "example": "adapters/cooking"},
                "system_prompt": {"type": "string", "x-nullable": true},
                "enabled": {"type": "boolean", "example": true}
            }
        },
        "types.Turn": {
            "type": "object",
            "properties": {
                "user": {"type": "string"},
                "assistant": {"type": "string"}
            }
        },
        "types.ChatRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string", "example": "How do I make carbonara?"},
                "model_id": {"type": "string", "example": "cooking"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/types.Turn"}},
                "max_tokens": {"type": "integer", "example": 500},
                "temperature": {"type": "number", "example": 0.7}
            }
        },
        "types.ChatResponse": {
            "type": "object",
            "properties": {
                "response": {"type": "string"},
                "model": {"type": "string", "example": "Chef"}
            }
        },
        "types.StreamEvent": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "done": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Expert"}},
                "current": {"type": "string"}
            }
        },
        "types.SelectRequest": {
            "type": "object",
            "required": ["model_id"],
            "properties": {
                "model_id": {"type": "string", "example": "history"}
            }
        },
        "types.SelectResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "model": {"$ref": "#/definitions/types.Expert"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "loaded_models": {"type": "array", "items": {"type": "string"}},
                "current_model": {"type": "string"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "message is required"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`
