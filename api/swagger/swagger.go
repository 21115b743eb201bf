package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Course timetabling service: exact backtracking solver with relaxed and split degradation paths",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduler", "description": "Timetable generation and persistence"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/schedule/generate": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate a weekly timetable proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/save": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Save a generated proposal as a versioned timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Proposal not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Proposal cannot be published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/proposals/{id}/export.csv": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Export a proposal's weekly grid as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV document"},
                    "404": {"description": "Proposal not found or expired"}
                }
            }
        },
        "/schedule/proposals/{id}/export.pdf": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Export a proposal's weekly grid as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "404": {"description": "Proposal not found or expired"}
                }
            }
        },
        "/examples/sample-schedule": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Generate a timetable for the built-in sample roster",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "List stored timetable versions for a label",
                "parameters": [
                    {"name": "label", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/slots": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Get the occupied hours of a stored timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Timetable not found"}
                }
            }
        },
        "/timetables/{id}": {
            "delete": {
                "tags": ["Scheduler"],
                "summary": "Delete a stored timetable version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Timetable not found"}
                }
            }
        }
    },
    "definitions": {
        "CourseRequest": {
            "type": "object",
            "required": ["code", "name", "teacher", "duration"],
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "teacher": {"type": "string"},
                "duration": {"type": "integer", "minimum": 1},
                "preferredDays": {"type": "array", "items": {"type": "string"}},
                "preferredTimes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["courses"],
            "properties": {
                "courses": {"type": "array", "items": {"$ref": "#/definitions/CourseRequest"}},
                "timeLimitSeconds": {"type": "integer"},
                "splitOrder": {"type": "string", "enum": ["fixed", "spread"]}
            }
        },
        "SaveScheduleRequest": {
            "type": "object",
            "required": ["proposalId", "label"],
            "properties": {
                "proposalId": {"type": "string"},
                "label": {"type": "string"},
                "publish": {"type": "boolean"}
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
