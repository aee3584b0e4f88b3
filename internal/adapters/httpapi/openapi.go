package httpapi

import (
	"net/http"

	"github.com/tickerping/tickerping/internal/httpjson"
)

// handleOpenAPI renvoie une spec OpenAPI minimale pour cadrer l'API.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}

	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}

	bearer := []map[string]any{{"bearerAuth": []any{}}}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "TickerPing API",
			"version": "v1",
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{
					"type":         "http",
					"scheme":       "bearer",
					"bearerFormat": "JWT",
				},
			},
			"schemas": map[string]any{
				"OpenAPIDocument": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": map[string]any{"type": "string"},
						"kind":  map[string]any{"type": "string"},
					},
					"required": []any{"error"},
				},
				"Stock": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"symbol":         map[string]any{"type": "string", "example": "AAPL"},
						"name":           map[string]any{"type": "string", "example": "Apple Inc"},
						"instrumentType": map[string]any{"type": "string", "example": "Equity"},
						"region":         map[string]any{"type": "string", "example": "United States"},
						"currency":       map[string]any{"type": "string", "example": "USD"},
					},
					"required":             []any{"symbol"},
					"additionalProperties": false,
				},
				"ChannelSelection": map[string]any{
					"type":        "object",
					"description": "Canal activé -> profils de contact.",
					"additionalProperties": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"Subscription": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":                     map[string]any{"type": "string"},
						"symbol":                 map[string]any{"type": "string"},
						"name":                   map[string]any{"type": "string"},
						"interval":               map[string]any{"type": "integer", "minimum": 1},
						"status":                 map[string]any{"type": "string", "enum": []any{"playing", "paused"}},
						"notifications":          map[string]any{"$ref": "#/components/schemas/ChannelSelection"},
						"initialNotification":    map[string]any{"type": "string", "example": "02 September 2026 10:10"},
						"subsequentNotification": map[string]any{"type": "string", "example": "02 September 2026 10:30"},
						"createdAt":              map[string]any{"type": "string", "format": "date-time"},
						"updatedAt":              map[string]any{"type": "string", "format": "date-time"},
					},
					"required": []any{"id", "symbol", "interval", "status"},
				},
				"SubscriptionList": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/components/schemas/Subscription"},
				},
				"CreateSubscriptionRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"stock":             map[string]any{"$ref": "#/components/schemas/Stock"},
						"interval":          map[string]any{"type": "integer", "minimum": 1, "description": "Minutes entre deux vérifications."},
						"firstNotification": map[string]any{"type": "string", "format": "date-time"},
					},
					"required":             []any{"stock", "interval", "firstNotification"},
					"additionalProperties": false,
				},
				"ScheduleRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"resumeDate": map[string]any{"type": "string", "format": "date-time"},
						"startDate":  map[string]any{"type": "string", "format": "date-time"},
						"interval":   map[string]any{"type": "integer", "minimum": 1},
					},
					"required": []any{"interval"},
				},
				"Dispatch": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":             map[string]any{"type": "string"},
						"subscriptionId": map[string]any{"type": "string"},
						"subscriberId":   map[string]any{"type": "string"},
						"symbol":         map[string]any{"type": "string"},
						"state":          map[string]any{"type": "string", "enum": []any{"queued", "claimed", "delivered", "failed", "canceled"}},
						"notifications":  map[string]any{"$ref": "#/components/schemas/ChannelSelection"},
						"dueAt":          map[string]any{"type": "string", "format": "date-time"},
						"createdAt":      map[string]any{"type": "string", "format": "date-time"},
						"updatedAt":      map[string]any{"type": "string", "format": "date-time"},
						"errorCode":      map[string]any{"type": "string"},
						"error":          map[string]any{"type": "string"},
					},
					"required": []any{"id", "subscriptionId", "subscriberId", "state"},
				},
				"DispatchList": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/components/schemas/Dispatch"},
				},
				"Settings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"scanBatchSize":       map[string]any{"type": "integer", "minimum": 1},
						"maxConcurrentChecks": map[string]any{"type": "integer", "minimum": 1},
						"marketDataToken":     map[string]any{"type": "string"},
						"marketDataBaseUrl":   map[string]any{"type": "string"},
					},
					"additionalProperties": false,
				},
				"User": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"uuid":     map[string]any{"type": "string", "format": "uuid"},
						"email":    map[string]any{"type": "string"},
						"name":     map[string]any{"type": "string"},
						"profiles": map[string]any{"$ref": "#/components/schemas/ChannelSelection"},
					},
					"required": []any{"uuid"},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/version": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/openapi.json": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/OpenAPIDocument")}},
			},
			"/api/v1/events": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE"}}},
			},
			"/api/v1/stocks/search": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"name": "keywords", "in": "query", "required": true, "schema": map[string]any{"type": "string"}},
					},
					"responses": map[string]any{
						"200": map[string]any{"description": "OK"},
						"400": jsonErr,
						"503": jsonErr,
					},
				},
			},
			"/api/v1/subscriptions": map[string]any{
				"get": map[string]any{
					"security": bearer,
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/SubscriptionList"),
						"401": jsonErr,
						"500": jsonErr,
					},
				},
				"post": map[string]any{
					"security": bearer,
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/CreateSubscriptionRequest"},
							},
						},
					},
					"responses": map[string]any{
						"201": jsonOK("#/components/schemas/Subscription"),
						"400": jsonErr,
						"409": jsonErr,
						"500": jsonErr,
					},
				},
			},
			"/api/v1/subscriptions/{id}/pause": map[string]any{
				"patch": map[string]any{
					"security": bearer,
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/ScheduleRequest"},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Subscription"),
						"400": jsonErr,
						"404": jsonErr,
					},
				},
			},
			"/api/v1/subscriptions/{id}/play": map[string]any{
				"patch": map[string]any{
					"security": bearer,
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/ScheduleRequest"},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Subscription"),
						"400": jsonErr,
						"404": jsonErr,
					},
				},
			},
			"/api/v1/subscriptions/{id}": map[string]any{
				"delete": map[string]any{
					"security": bearer,
					"responses": map[string]any{
						"200": map[string]any{"description": "OK"},
						"404": jsonErr,
					},
				},
			},
			"/api/v1/subscriptions/{id}/notifications": map[string]any{
				"put": map[string]any{
					"security": bearer,
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/ChannelSelection"},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Subscription"),
						"400": jsonErr,
						"404": jsonErr,
					},
				},
			},
			"/api/v1/profile": map[string]any{
				"get": map[string]any{
					"security": bearer,
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/User"),
						"401": jsonErr,
					},
				},
				"put": map[string]any{
					"security": bearer,
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/User"),
						"400": jsonErr,
						"401": jsonErr,
					},
				},
			},
			"/api/v1/dispatches": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/DispatchList"),
						"500": jsonErr,
					},
				},
			},
			"/api/v1/dispatches/{id}": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Dispatch"),
						"404": jsonErr,
					},
				},
			},
			"/api/v1/dispatches/claim": map[string]any{
				"post": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Dispatch"),
						"204": map[string]any{"description": "Empty queue"},
					},
				},
			},
			"/api/v1/dispatches/{id}/state": map[string]any{
				"post": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Dispatch"),
						"404": jsonErr,
						"409": jsonErr,
					},
				},
			},
			"/api/v1/settings": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Settings"),
						"500": jsonErr,
					},
				},
				"put": map[string]any{
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/Settings"},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Settings"),
						"400": jsonErr,
						"500": jsonErr,
					},
				},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
