package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Allocation API",
        "description": "Matches waiting students to tutors and books conflict-free classes.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Allocations", "description": "Allocation planning, commit and reporting"},
        {"name": "Classes", "description": "Class booking and conflict checks"},
        {"name": "System", "description": "Health and instrumentation"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Liveness with metrics snapshot",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness of postgres and redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Dependency unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus exposition",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/allocations/plan": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Compute an allocation proposal for waiting students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/PlanAllocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Proposal created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/allocations/plan/{id}": {
            "get": {
                "tags": ["Allocations"],
                "summary": "Fetch an unexpired proposal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/allocations/commit": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Book classes for accepted proposal entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/CommitAllocationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Classes created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Proposal not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/allocations/summary": {
            "get": {
                "tags": ["Allocations"],
                "summary": "Allocation summary for the dashboard",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "department_id", "type": "string"},
                    {"in": "query", "name": "grade", "type": "string"},
                    {"in": "query", "name": "board", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/allocations/summary/export": {
            "get": {
                "tags": ["Allocations"],
                "summary": "Download the allocation summary",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]},
                    {"in": "query", "name": "department_id", "type": "string"},
                    {"in": "query", "name": "grade", "type": "string"},
                    {"in": "query", "name": "board", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/matches": {
            "get": {
                "tags": ["Allocations"],
                "summary": "Ranked compatible tutors for a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "subject", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/conflicts": {
            "post": {
                "tags": ["Classes"],
                "summary": "Check a proposed slot for conflicts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes": {
            "post": {
                "tags": ["Classes"],
                "summary": "Book a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/CreateClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/{id}/schedule": {
            "put": {
                "tags": ["Classes"],
                "summary": "Move a class to a new slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/RescheduleClassRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Class is not active", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PlanAllocationRequest": {
            "type": "object",
            "properties": {
                "department_id": {"type": "string"},
                "grade": {"type": "string"},
                "board": {"type": "string"}
            }
        },
        "CommitAllocationEntry": {
            "type": "object",
            "required": ["student_id", "date", "start_time", "duration_minutes"],
            "properties": {
                "student_id": {"type": "string"},
                "subject": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "16:30"},
                "duration_minutes": {"type": "integer", "minimum": 15, "maximum": 480}
            }
        },
        "CommitAllocationRequest": {
            "type": "object",
            "required": ["plan_id", "entries"],
            "properties": {
                "plan_id": {"type": "string"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/CommitAllocationEntry"}},
                "allow_outside_availability": {"type": "boolean"}
            }
        },
        "ConflictCheckRequest": {
            "type": "object",
            "required": ["tutor_id", "date", "start_time", "duration_minutes"],
            "properties": {
                "tutor_id": {"type": "string"},
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "exclude_commitment_id": {"type": "string"}
            }
        },
        "CreateClassRequest": {
            "type": "object",
            "required": ["tutor_id", "student_id", "date", "start_time", "duration_minutes"],
            "properties": {
                "tutor_id": {"type": "string"},
                "student_id": {"type": "string"},
                "participant_ids": {"type": "array", "items": {"type": "string"}},
                "subject": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "duration_minutes": {"type": "integer", "minimum": 15, "maximum": 480},
                "allow_outside_availability": {"type": "boolean"}
            }
        },
        "RescheduleClassRequest": {
            "type": "object",
            "required": ["date", "start_time", "duration_minutes"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "duration_minutes": {"type": "integer", "minimum": 15, "maximum": 480},
                "allow_outside_availability": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
