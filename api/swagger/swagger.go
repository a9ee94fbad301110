package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Diamond Ledger API",
        "description": "Back-office API for the diamond trading dashboard",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Session management"},
        {"name": "Reference", "description": "Color, clarity, shape, status, payment status and employee management"},
        {"name": "Parties", "description": "Trading parties and kapan history"},
        {"name": "DiamondLots", "description": "Diamond lot ledger"},
        {"name": "Attendance", "description": "Monthly attendance grid"},
        {"name": "Rates", "description": "Per-party rate tiers"},
        {"name": "Exports", "description": "Ledger export jobs"},
        {"name": "MasterData", "description": "Aggregated select payload"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in with user name and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Clear the session cookie",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Return the session user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/diamondLot": {
            "get": {
                "tags": ["DiamondLots"],
                "summary": "List one ledger page with selection-wide totals",
                "parameters": [
                    {"name": "uniqueIdReverse", "in": "query", "type": "string"},
                    {"name": "dateReverse", "in": "query", "type": "string"},
                    {"name": "polishDateReverse", "in": "query", "type": "string"},
                    {"name": "HPHTDateReverse", "in": "query", "type": "string"},
                    {"name": "party", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "paymentStatus", "in": "query", "type": "string"},
                    {"name": "kapan", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "record", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["DiamondLots"],
                "summary": "Issue a batch of lots under one party and kapan number",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LotCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/diamondLot/lot": {
            "get": {
                "tags": ["DiamondLots"],
                "summary": "Look up one ledger row by its sequential display id",
                "parameters": [
                    {"name": "uniqueId", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/diamondLot/{id}": {
            "put": {
                "tags": ["DiamondLots"],
                "summary": "Apply an inline cell edit to one lot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance grid for one month",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Record one employee's status for one day",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendanceMarkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Future date or invalid status"}
                }
            }
        },
        "/rate": {
            "get": {
                "tags": ["Rates"],
                "summary": "Rate tiers for one party",
                "parameters": [
                    {"name": "partyId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rates"],
                "summary": "Add a value range with its first rate entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RateTierCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a ledger export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No columns selected"}
                }
            }
        },
        "/masterData": {
            "get": {
                "tags": ["MasterData"],
                "summary": "Every reference list the dashboard's selects need, in one call",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "userName": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["userName", "password"]
        },
        "LotCreateRequest": {
            "type": "object",
            "properties": {
                "partyId": {"type": "string"},
                "kapanNumber": {"type": "string"},
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/LotItemInput"}
                }
            },
            "required": ["partyId", "kapanNumber", "items"]
        },
        "LotItemInput": {
            "type": "object",
            "properties": {
                "pktNumber": {"type": "string"},
                "issueWeight": {"type": "number"},
                "expectedWeight": {"type": "number"},
                "shapeId": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "AttendanceMarkRequest": {
            "type": "object",
            "properties": {
                "employeeId": {"type": "string"},
                "date": {"type": "string"},
                "status": {"type": "string", "enum": ["Present", "Halfday", "Absent"]}
            },
            "required": ["employeeId", "date", "status"]
        },
        "RateTierCreateRequest": {
            "type": "object",
            "properties": {
                "partyId": {"type": "string"},
                "startingValue": {"type": "number"},
                "endingValue": {"type": "number"},
                "rate": {"type": "number"},
                "date": {"type": "string"}
            },
            "required": ["partyId", "startingValue", "endingValue", "rate", "date"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["xlsx", "pdf", "csv"]},
                "columns": {"type": "array", "items": {"type": "string"}},
                "filter": {"type": "object"}
            },
            "required": ["format", "columns"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
