// Package docs registers the OpenAPI document served under /swagger/.
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
        "ApiKey": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "VoterToken": {"type": "apiKey", "name": "X-Voter-Token", "in": "header"}
    },
    "security": [{"ApiKey": []}],
    "paths": {
        "/api/voting/v1/questions": {
            "get": {
                "summary": "List questions",
                "description": "Visible questions; admins also see hidden ones.",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/QuestionListResponse"}}}
            }
        },
        "/api/voting/v1/questions/{question_id}": {
            "get": {
                "summary": "Get a question with its answer options",
                "parameters": [{"name": "question_id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/QuestionDetailResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/voting/v1/questions/{question_id}/results": {
            "get": {
                "summary": "Aggregated results",
                "parameters": [{"name": "question_id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResultsResponse"}},
                    "403": {"description": "Results hidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/voting/v1/votes": {
            "post": {
                "summary": "Submit a vote",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitVoteRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/VoteResponse"}},
                    "400": {"description": "Invalid request or answer mismatch", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Voting disabled or question closed", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Already voted", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/voting/v1/users/me/votes": {
            "get": {
                "summary": "Votes cast by the current voter",
                "security": [{"ApiKey": [], "VoterToken": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/UserVotesResponse"}}}
            }
        },
        "/api/voting/v1/admin/questions": {
            "post": {
                "summary": "Create a question",
                "security": [{"ApiKey": [], "VoterToken": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuestionRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/QuestionResponse"}}}
            }
        },
        "/api/voting/v1/admin/answer-options": {
            "post": {
                "summary": "Create an answer option",
                "security": [{"ApiKey": [], "VoterToken": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AnswerOptionRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/AnswerOptionResponse"}}}
            }
        },
        "/api/voting/v1/admin/api-keys": {
            "get": {
                "summary": "List API keys",
                "security": [{"ApiKey": [], "VoterToken": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIKeyListResponse"}}}
            },
            "post": {
                "summary": "Generate an API key",
                "security": [{"ApiKey": [], "VoterToken": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/APIKeyResponse"}}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}}},
        "SubmitVoteRequest": {"type": "object", "required": ["question_id", "answer_id"], "properties": {
            "question_id": {"type": "string"},
            "answer_id": {"type": "string"},
            "selected_option": {"type": "string", "enum": ["title", "description", "image"]}
        }},
        "VoteResponse": {"type": "object", "properties": {
            "vote_id": {"type": "string"}, "question_id": {"type": "string"}, "answer_id": {"type": "string"},
            "user_id": {"type": "string"}, "selected_option": {"type": "string"}, "created_at": {"type": "string", "format": "date-time"}
        }},
        "QuestionRequest": {"type": "object", "required": ["title"], "properties": {
            "title": {"type": "string"}, "identifier": {"type": "string"}, "visible": {"type": "boolean"},
            "activates_at": {"type": "string", "format": "date-time"}, "expires_at": {"type": "string", "format": "date-time"}
        }},
        "QuestionResponse": {"type": "object", "properties": {
            "question_id": {"type": "string"}, "title": {"type": "string"}, "identifier": {"type": "string"}, "visible": {"type": "boolean"},
            "activates_at": {"type": "string", "format": "date-time"}, "expires_at": {"type": "string", "format": "date-time"},
            "created_at": {"type": "string", "format": "date-time"}, "updated_at": {"type": "string", "format": "date-time"}
        }},
        "QuestionListResponse": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/QuestionResponse"}}}},
        "AnswerOptionRequest": {"type": "object", "properties": {
            "question_id": {"type": "string"}, "title": {"type": "string"}, "image": {"type": "string"}, "description": {"type": "string"}
        }},
        "AnswerOptionResponse": {"type": "object", "properties": {
            "answer_id": {"type": "string"}, "question_id": {"type": "string"}, "title": {"type": "string"},
            "image": {"type": "string"}, "description": {"type": "string"}
        }},
        "QuestionDetailResponse": {"type": "object", "properties": {
            "question": {"$ref": "#/definitions/QuestionResponse"},
            "answer_options": {"type": "array", "items": {"$ref": "#/definitions/AnswerOptionResponse"}}
        }},
        "ResultsResponse": {"type": "object", "properties": {
            "question_id": {"type": "string"}, "mode": {"type": "string"}, "total_votes": {"type": "integer"},
            "counts": {"type": "object", "additionalProperties": {"type": "integer"}},
            "percentages": {"type": "object", "additionalProperties": {"type": "number"}},
            "highest_rated": {"type": "object", "properties": {"key": {"type": "string"}, "label": {"type": "string"}, "count": {"type": "integer"}}}
        }},
        "UserVotesResponse": {"type": "object", "properties": {
            "user_id": {"type": "string"},
            "items": {"type": "array", "items": {"type": "object", "properties": {
                "question_id": {"type": "string"}, "answer_id": {"type": "string"}, "vote_count": {"type": "integer"}
            }}}
        }},
        "APIKeyResponse": {"type": "object", "properties": {
            "api_key_id": {"type": "string"}, "key": {"type": "string"}, "created_at": {"type": "string", "format": "date-time"}
        }},
        "APIKeyListResponse": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/APIKeyResponse"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pollster Voting API",
	Description:      "Question catalogue, vote recording and result aggregation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
