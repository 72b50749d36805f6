// Package docs holds the OpenAPI description served on /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/guttosm/mtmengine"
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
        "/api/v1/exposure": {
            "get": {
                "description": "Aggregates every physical and paper leg into the monthly exposure matrix per canonical product",
                "produces": ["application/json"],
                "tags": ["exposure"],
                "summary": "Monthly exposure table",
                "parameters": [
                    {"type": "string", "example": "2024-06", "description": "First month of the horizon (YYYY-MM or Mon-YY)", "name": "start", "in": "query"},
                    {"type": "string", "example": "2024-06-14", "description": "As-of date in YYYY-MM-DD", "name": "today", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.ExposureResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/legs/{id}/mtm": {
            "get": {
                "description": "Returns trade price, MTM price and MTM value of a physical or paper leg. A side without a price is null and the missing quotes are listed; the value is null unless both sides resolved.",
                "produces": ["application/json"],
                "tags": ["mtm"],
                "summary": "Mark one leg to market",
                "parameters": [
                    {"type": "string", "example": "PH-001", "description": "Leg id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "example": "physical", "description": "physical (default) or paper", "name": "kind", "in": "query"},
                    {"type": "string", "example": "2024-06-14", "description": "As-of date in YYYY-MM-DD", "name": "today", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.ValuationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/book/mtm": {
            "get": {
                "description": "Values every leg in one pass. The total sums resolved legs only.",
                "produces": ["application/json"],
                "tags": ["mtm"],
                "summary": "Mark the whole book to market",
                "parameters": [
                    {"type": "string", "example": "2024-06-14", "description": "As-of date in YYYY-MM-DD", "name": "today", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.BookValuationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/prices/{instrument}/series": {
            "get": {
                "description": "One point per working day: daily history up to today, the month's forward quote after",
                "produces": ["application/json"],
                "tags": ["prices"],
                "summary": "Daily price series",
                "parameters": [
                    {"type": "string", "example": "GASOIL", "description": "Instrument (any alias)", "name": "instrument", "in": "path", "required": true},
                    {"type": "string", "example": "2024-06-01", "description": "First date in YYYY-MM-DD", "name": "start", "in": "query", "required": true},
                    {"type": "string", "example": "2024-07-31", "description": "Last date in YYYY-MM-DD", "name": "end", "in": "query", "required": true},
                    {"type": "string", "example": "2024-06-14", "description": "As-of date in YYYY-MM-DD", "name": "today", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.PriceSeriesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/instruments": {
            "get": {
                "description": "Lists instruments quoted on the forward curve over the exposure horizon",
                "produces": ["application/json"],
                "tags": ["prices"],
                "summary": "Instruments with forward quotes",
                "parameters": [
                    {"type": "string", "example": "2024-06-14", "description": "As-of date in YYYY-MM-DD", "name": "today", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.InstrumentsResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Always returns OK if the service is running",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/readyz": {
            "get": {
                "description": "Reports the state of every dependency; 503 when a required one is down",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "invalid start month"},
                "error_details": {"type": "string"},
                "timestamp": {"type": "string", "example": "2024-06-14T10:00:00Z"}
            }
        },
        "models.ExposureData": {
            "type": "object",
            "properties": {
                "physical": {"type": "number", "example": 1000},
                "pricing": {"type": "number", "example": -500},
                "paper": {"type": "number", "example": 0},
                "net_exposure": {"type": "number", "example": 500}
            }
        },
        "models.MonthlyExposure": {
            "type": "object",
            "properties": {
                "month": {"type": "string", "example": "2024-06"},
                "products": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.ExposureData"}},
                "totals": {"$ref": "#/definitions/models.ExposureData"}
            }
        },
        "models.GrandTotals": {
            "type": "object",
            "properties": {
                "product_totals": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.ExposureData"}},
                "total_physical": {"type": "number"},
                "total_pricing": {"type": "number"},
                "total_paper": {"type": "number"},
                "total_net": {"type": "number"}
            }
        },
        "models.GroupTotals": {
            "type": "object",
            "properties": {
                "biodiesel": {"$ref": "#/definitions/models.ExposureData"},
                "pricing_instrument": {"$ref": "#/definitions/models.ExposureData"},
                "total_row": {"$ref": "#/definitions/models.ExposureData"}
            }
        },
        "models.SkippedLeg": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "models.MonthTradeCount": {
            "type": "object",
            "properties": {
                "month": {"type": "string"},
                "label": {"type": "string", "example": "Jun-24"},
                "physical": {"type": "integer"},
                "paper": {"type": "integer"}
            }
        },
        "models.MissingPrice": {
            "type": "object",
            "properties": {
                "instrument": {"type": "string"},
                "month": {"type": "string"},
                "role": {"type": "string", "enum": ["trade", "mtm"]}
            }
        },
        "dto.ExposureResponse": {
            "type": "object",
            "properties": {
                "from": {"type": "string", "example": "2024-06"},
                "to": {"type": "string", "example": "2025-06"},
                "products": {"type": "array", "items": {"type": "string"}},
                "months": {"type": "array", "items": {"$ref": "#/definitions/models.MonthlyExposure"}},
                "grand_totals": {"$ref": "#/definitions/models.GrandTotals"},
                "group_totals": {"$ref": "#/definitions/models.GroupTotals"},
                "skipped_leg_count": {"type": "integer"},
                "skipped_legs": {"type": "array", "items": {"$ref": "#/definitions/models.SkippedLeg"}},
                "trades_per_month": {"type": "array", "items": {"$ref": "#/definitions/models.MonthTradeCount"}}
            }
        },
        "dto.ValuationResponse": {
            "type": "object",
            "properties": {
                "leg_id": {"type": "string", "example": "PH-001"},
                "kind": {"type": "string", "example": "physical"},
                "trade_price": {"type": "number", "example": 1015},
                "mtm_price": {"type": "number", "example": 1110},
                "mtm_value": {"type": "number", "example": 950},
                "period_type": {"type": "string", "example": "past"},
                "status": {"type": "string", "example": "resolved"},
                "missing": {"type": "array", "items": {"$ref": "#/definitions/models.MissingPrice"}},
                "note": {"type": "string"}
            }
        },
        "dto.BookValuationResponse": {
            "type": "object",
            "properties": {
                "as_of": {"type": "string", "example": "2024-06-14"},
                "valuations": {"type": "array", "items": {"$ref": "#/definitions/dto.ValuationResponse"}},
                "total_mtm_value": {"type": "number", "example": -50},
                "unresolved": {"type": "integer", "example": 1}
            }
        },
        "dto.PricePoint": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2024-06-14"},
                "price": {"type": "number", "example": 712.5},
                "source": {"type": "string", "example": "daily"}
            }
        },
        "dto.PriceSeriesResponse": {
            "type": "object",
            "properties": {
                "instrument": {"type": "string", "example": "ICE GASOIL FUTURES"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/dto.PricePoint"}}
            }
        },
        "dto.InstrumentsResponse": {
            "type": "object",
            "properties": {
                "instruments": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "mtmengine API",
	Description:      "Exposure and mark-to-market engine for physical and paper biodiesel trades.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
