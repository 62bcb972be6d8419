// Package docs registers the OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag"

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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/channels": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["channels"], "summary": "List channels", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["channels"], "summary": "Create channel", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/channels/{id}/join": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["channels"], "summary": "Join channel", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/channels/{id}/leave": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["channels"], "summary": "Leave channel", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/channels/{id}/invite": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["channels"], "summary": "Invite user", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/channels/{id}/presence": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["channels"], "summary": "Present users", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}
        },
        "/messages": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Send message", "responses": {"201": {"description": "Created"}}}
        },
        "/messages/{id}": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Edit message", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Delete message", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/messages/channel/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Message history", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}, {"name": "before", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/messages/channel/{id}/search": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Search messages", "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}, {"name": "q", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/ws": {
            "get": {"tags": ["websocket"], "summary": "Open live connection", "parameters": [{"name": "token", "in": "query", "type": "string"}], "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Channel Chat API",
	Description:      "Channel-scoped real-time messaging service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
