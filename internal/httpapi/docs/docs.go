// Package docs registers the OpenAPI document served by the Swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "upscaled maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/scale": {
            "get": {
                "produces": ["image/png", "image/jpeg", "image/bmp", "image/tiff", "application/json"],
                "summary": "Upscale the image at a URL",
                "parameters": [
                    {"type": "string", "default": "no-denoise", "description": "model variant", "name": "model", "in": "query"},
                    {"type": "integer", "default": 2, "description": "scale factor (2, 3 or 4)", "name": "scale", "in": "query"},
                    {"type": "integer", "default": 2, "description": "tile setting 0-8", "name": "tile", "in": "query"},
                    {"type": "string", "default": "png", "description": "output format (png, jpeg, bmp, tiff)", "name": "format", "in": "query"},
                    {"type": "string", "description": "input image URL", "name": "url", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "upscaled image", "schema": {"type": "file"}},
                    "400": {"description": "invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "too busy", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "server error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["image/png", "image/jpeg", "image/bmp", "image/tiff", "application/json"],
                "summary": "Upscale an uploaded image",
                "parameters": [
                    {"type": "string", "default": "no-denoise", "description": "model variant", "name": "model", "in": "query"},
                    {"type": "integer", "default": 2, "description": "scale factor (2, 3 or 4)", "name": "scale", "in": "query"},
                    {"type": "integer", "default": 2, "description": "tile setting 0-8", "name": "tile", "in": "query"},
                    {"type": "string", "default": "png", "description": "output format (png, jpeg, bmp, tiff)", "name": "format", "in": "query"},
                    {"type": "file", "description": "input image", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "upscaled image", "schema": {"type": "file"}},
                    "400": {"description": "invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "too busy", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "server error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List model and scale combinations",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Pool, cache and admission status",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "no weights"}}}}
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "no such model"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.ModelEntry": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "no-denoise"},
                "scale": {"type": "integer", "example": 2},
                "path": {"type": "string"},
                "available": {"type": "boolean", "example": true}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.ModelEntry"}},
                "formats": {"type": "array", "items": {"type": "string"}},
                "max_tile": {"type": "integer", "example": 9}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "upscaled API",
	Description:      "HTTP front-end for cached, pooled image upscaling.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
