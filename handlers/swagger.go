package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the OpenAPI description of the HTTP API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>syncmart API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "syncmart", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/auth/login": {
      "post": { "summary": "Sign in with an OIDC ID token", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"id_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "user, access and refresh tokens" }, "401": { "description": "invalid id token" } } }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "End the session and revoke the bearer token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": { "get": { "summary": "Caller profile", "responses": { "200": { "description": "user" } } } },
    "/api/v1/lists": {
      "get": { "summary": "Lists owned by or shared with the caller", "responses": { "200": { "description": "lists ordered by position" } } },
      "post": { "summary": "Create a list", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"listName":{"type":"string"},"accessEmails":{"type":"array","items":{"type":"string"}}}}}}}, "responses": { "201": { "description": "created list" }, "400": { "description": "validation failed" } } },
      "delete": { "summary": "Delete owned lists in one batch", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"ids":{"type":"array","items":{"type":"string"}}}}}}}, "responses": { "200": { "description": "deleted" }, "403": { "description": "a list is not owned by the caller" } } }
    },
    "/api/v1/lists/{id}": {
      "patch": { "summary": "Rename a list or replace its collaborators", "responses": { "200": { "description": "updated" }, "403": { "description": "not the owner" } } },
      "delete": { "summary": "Delete a list", "responses": { "200": { "description": "deleted" }, "404": { "description": "no such list" } } }
    },
    "/api/v1/lists/{id}/items": {
      "get": { "summary": "Items partitioned into pending and finished", "responses": { "200": { "description": "partitions and author names" } } },
      "post": { "summary": "Add one item per line of text", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"text":{"type":"string"}}}}}}, "responses": { "201": { "description": "added items" } } },
      "delete": { "summary": "Delete items by id", "responses": { "200": { "description": "count deleted" } } }
    },
    "/api/v1/lists/{id}/items/finished": { "delete": { "summary": "Delete every finished item", "responses": { "200": { "description": "count deleted" } } } },
    "/api/v1/lists/{id}/items/{itemId}": {
      "patch": { "summary": "Rename an item", "responses": { "200": { "description": "renamed" } } },
      "delete": { "summary": "Delete an item", "responses": { "200": { "description": "deleted" } } }
    },
    "/api/v1/lists/{id}/items/{itemId}/status": { "post": { "summary": "Toggle pending", "responses": { "200": { "description": "new pending value" } } } },
    "/api/v1/lists/{id}/items/{itemId}/important": { "post": { "summary": "Toggle important", "responses": { "200": { "description": "new important value" } } } },
    "/api/v1/friends": {
      "get": { "summary": "Caller's friends map", "responses": { "200": { "description": "email to name" } } },
      "post": { "summary": "Add a friend", "responses": { "201": { "description": "added" }, "409": { "description": "already a friend" } } }
    },
    "/api/v1/friends/{email}": { "delete": { "summary": "Remove a friend", "responses": { "200": { "description": "removed" } } } },
    "/api/v1/users/{email}/name": { "get": { "summary": "Display name for an email", "responses": { "200": { "description": "name" } } } },
    "/api/v1/live/lists": { "get": { "summary": "Websocket stream of the caller's lists", "responses": { "101": { "description": "switching protocols" } } } },
    "/api/v1/live/lists/{id}/items": { "get": { "summary": "Websocket stream of a list's partitions", "responses": { "101": { "description": "switching protocols" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
