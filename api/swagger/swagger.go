package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ComplyArk Data Shield API",
        "description": "Data principal request and grievance case management",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Staff login"},
        {"name": "Intake", "description": "Public request and grievance submission"},
        {"name": "Cases", "description": "Case queries and lifecycle transitions"},
        {"name": "Dashboard", "description": "Case counts and open task lists"},
        {"name": "Organisations", "description": "Tenant administration and intake links"},
        {"name": "Users", "description": "Staff administration"},
        {"name": "Catalog", "description": "Status and industry reference data"},
        {"name": "Exports", "description": "Asynchronous case register exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/public/intake/{token}": {
            "get": {
                "tags": ["Intake"],
                "summary": "Resolve intake link",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown organisation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/public/intake/{token}/cases": {
            "post": {
                "tags": ["Intake"],
                "summary": "Submit a request or grievance",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitCaseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cases": {
            "get": {
                "tags": ["Cases"],
                "summary": "List cases",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "organisationId", "in": "query", "type": "integer"},
                    {"name": "kind", "in": "query", "type": "string", "enum": ["DATA_PRINCIPAL_REQUEST", "GRIEVANCE"]},
                    {"name": "statusId", "in": "query", "type": "integer"},
                    {"name": "assignedTo", "in": "query", "type": "integer"},
                    {"name": "open", "in": "query", "type": "boolean"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/cases/{id}": {
            "get": {
                "tags": ["Cases"],
                "summary": "Get case with history",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cases/{id}/history": {
            "get": {
                "tags": ["Cases"],
                "summary": "Case history",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/cases/{id}/status": {
            "post": {
                "tags": ["Cases"],
                "summary": "Change case status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Case closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cases/{id}/assign": {
            "post": {
                "tags": ["Cases"],
                "summary": "Assign case",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignCaseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Case dashboard summary",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "organisationId", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/organisations": {
            "get": {
                "tags": ["Organisations"],
                "summary": "List organisations",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Organisations"],
                "summary": "Create organisation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/organisations/{id}": {
            "get": {
                "tags": ["Organisations"],
                "summary": "Get organisation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Organisations"],
                "summary": "Update organisation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/organisations/{id}/intake-link": {
            "get": {
                "tags": ["Organisations"],
                "summary": "Public intake link",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "organisationId", "in": "query", "type": "integer"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/statuses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Case status catalogue",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/industries": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Industry catalogue",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a case register export",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/public/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubmitCaseRequest": {
            "type": "object",
            "required": ["kind", "firstName", "lastName", "email", "phone", "comment"],
            "properties": {
                "kind": {"type": "string", "enum": ["DATA_PRINCIPAL_REQUEST", "GRIEVANCE"]},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "requestType": {"type": "string", "enum": ["Access", "Correction", "Nomination", "Erasure"]},
                "comment": {"type": "string"}
            }
        },
        "ChangeStatusRequest": {
            "type": "object",
            "properties": {
                "statusId": {"type": "integer"},
                "comment": {"type": "string"}
            }
        },
        "AssignCaseRequest": {
            "type": "object",
            "required": ["assigneeId"],
            "properties": {
                "assigneeId": {"type": "integer"},
                "comment": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
