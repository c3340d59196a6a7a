// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

// @title           Orderly Flow API
// @version         1.0
// @description     Entity store for multi-tenant project boards: groups, items, subitems, people and update threads.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token

// @tag.name Boards
// @tag.description Boards and their column schema

// @tag.name Groups
// @tag.name Items
// @tag.name Subitems
// @tag.name People
// @tag.name Updates
// @tag.description Comment threads on groups, items and subitems

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
    "security": [{"BearerAuth": []}],
    "paths": {
        "/boards": {
            "get": {"tags": ["Boards"], "summary": "List boards of the caller's organization", "responses": {"200": {"description": "{boards}"}}},
            "post": {"tags": ["Boards"], "summary": "Create a board", "responses": {"201": {"description": "{board}"}, "400": {"description": "{error}"}}}
        },
        "/boards/{id}": {
            "get": {"tags": ["Boards"], "summary": "Get a full board", "responses": {"200": {"description": "{board}"}, "403": {"description": "{error}"}, "404": {"description": "{error}"}}},
            "patch": {"tags": ["Boards"], "summary": "Rename a board or replace its columns", "responses": {"200": {"description": "{board}"}}},
            "delete": {"tags": ["Boards"], "summary": "Delete a board", "responses": {"200": {"description": "{success}"}}}
        },
        "/boards/{id}/groups": {
            "get": {"tags": ["Groups"], "summary": "List groups", "responses": {"200": {"description": "{groups}"}}},
            "post": {"tags": ["Groups"], "summary": "Create a group", "responses": {"201": {"description": "{group}"}}}
        },
        "/boards/{id}/groups/{gid}": {
            "patch": {"tags": ["Groups"], "summary": "Retitle or move a group", "responses": {"200": {"description": "{success}"}}},
            "delete": {"tags": ["Groups"], "summary": "Delete a group", "responses": {"200": {"description": "{success}"}}}
        },
        "/boards/{id}/items": {
            "get": {"tags": ["Items"], "summary": "List items", "responses": {"200": {"description": "{items}"}}},
            "post": {"tags": ["Items"], "summary": "Create an item", "responses": {"201": {"description": "{item}"}}}
        },
        "/boards/{id}/items/{iid}": {
            "patch": {"tags": ["Items"], "summary": "Update an item; columns merge into stored cells", "responses": {"200": {"description": "{success}"}}},
            "delete": {"tags": ["Items"], "summary": "Delete an item", "responses": {"200": {"description": "{success}"}}}
        },
        "/boards/{id}/subitems": {
            "get": {"tags": ["Subitems"], "summary": "List subitems", "responses": {"200": {"description": "{subitems}"}}},
            "post": {"tags": ["Subitems"], "summary": "Create a subitem", "responses": {"201": {"description": "{subitem}"}}}
        },
        "/boards/{id}/subitems/{sid}": {
            "patch": {"tags": ["Subitems"], "summary": "Update a subitem", "responses": {"200": {"description": "{success}"}}},
            "delete": {"tags": ["Subitems"], "summary": "Delete a subitem", "responses": {"200": {"description": "{success}"}}}
        },
        "/boards/{id}/people": {
            "get": {"tags": ["People"], "summary": "List people", "responses": {"200": {"description": "array"}}},
            "post": {"tags": ["People"], "summary": "Add a person", "responses": {"201": {"description": "person"}}}
        },
        "/boards/{id}/people/{pid}": {
            "patch": {"tags": ["People"], "summary": "Update a person", "responses": {"200": {"description": "person"}}},
            "delete": {"tags": ["People"], "summary": "Remove a person", "responses": {"200": {"description": "{success}"}}}
        },
        "/updates": {
            "get": {"tags": ["Updates"], "summary": "List a thread", "responses": {"200": {"description": "{updates}"}}},
            "post": {"tags": ["Updates"], "summary": "Post an update", "responses": {"201": {"description": "{update}"}}},
            "delete": {"tags": ["Updates"], "summary": "Delete your own update", "responses": {"200": {"description": "{success}"}, "403": {"description": "{error}"}}}
        },
        "/updates/count": {
            "get": {"tags": ["Updates"], "summary": "Count a thread", "responses": {"200": {"description": "{count}"}}}
        },
        "/organizations/{id}/members": {
            "get": {"summary": "List members of the caller's organization", "responses": {"200": {"description": "array"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Orderly Flow API",
	Description:      "Entity store for multi-tenant project boards: groups, items, subitems, people and update threads.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
