// Package docs registers the OpenAPI document of the cache demo service.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Returns the overall health status and component statuses",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Healthy", "schema": {"$ref": "#/definitions/dto.HealthResponse"}},
                    "503": {"description": "Unhealthy", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "description": "Returns whether the cache answers",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/dto.HealthResponse"}},
                    "503": {"description": "Not ready", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/live": {
            "get": {
                "description": "Returns whether the process is alive",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "Alive", "schema": {"$ref": "#/definitions/dto.HealthResponse"}}
                }
            }
        },
        "/mock/cache/{key}": {
            "get": {
                "description": "Returns the cached value of key through the cache manager",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Read a key",
                "parameters": [
                    {"type": "string", "description": "Cache key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Key found", "schema": {"$ref": "#/definitions/dto.CacheResponse"}},
                    "404": {"description": "Key not found", "schema": {"$ref": "#/definitions/dto.CacheResponse"}},
                    "500": {"description": "Cache failure", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/mock/cache/{key}/{value}": {
            "get": {
                "description": "Stores value under key directly through the cache backend",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Write a key",
                "parameters": [
                    {"type": "string", "description": "Cache key", "name": "key", "in": "path", "required": true},
                    {"type": "string", "description": "Value", "name": "value", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Key stored", "schema": {"$ref": "#/definitions/dto.CacheResponse"}},
                    "500": {"description": "Key not stored", "schema": {"$ref": "#/definitions/dto.CacheResponse"}}
                }
            }
        },
        "/mock/clearcache": {
            "get": {
                "description": "Removes every key of the backend's namespace",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Clear the cache",
                "responses": {
                    "200": {"description": "Cache cleared", "schema": {"$ref": "#/definitions/dto.CacheResponse"}},
                    "500": {"description": "Cache not cleared", "schema": {"$ref": "#/definitions/dto.CacheResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.CacheResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "detail": {}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "components": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "OMI Cache Manager Demo API",
	Description:      "Demo endpoints exercising the pluggable cache manager",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
