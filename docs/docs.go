package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Finance Ops Intake",
    "description": "Review agent suggestions for finance inbox emails and turn them into tickets",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {
      "get": {
        "tags": [
          "health"
        ],
        "summary": "Health check",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/directory": {
      "get": {
        "tags": [
          "directory"
        ],
        "summary": "Routing directory",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/inbox": {
      "get": {
        "tags": [
          "inbox"
        ],
        "summary": "Inbox",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "status",
            "in": "query",
            "required": false,
            "type": "string",
            "description": "Review status or All"
          },
          {
            "name": "request_type",
            "in": "query",
            "required": false,
            "type": "string",
            "description": "Request type or All"
          },
          {
            "name": "has_ticket",
            "in": "query",
            "required": false,
            "type": "string",
            "description": "Yes, No or All"
          },
          {
            "name": "q",
            "in": "query",
            "required": false,
            "type": "string",
            "description": "Search over id, sender and subject"
          }
        ]
      }
    },
    "/api/emails/{id}": {
      "get": {
        "tags": [
          "inbox"
        ],
        "summary": "Email details",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string",
            "description": "Email ID"
          }
        ]
      }
    },
    "/api/emails/{id}/audit": {
      "get": {
        "tags": [
          "audit"
        ],
        "summary": "Email audit trail",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string",
            "description": "Email ID"
          }
        ]
      }
    },
    "/api/emails/{id}/review": {
      "post": {
        "tags": [
          "review"
        ],
        "summary": "Open an email for review",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string",
            "description": "Email ID"
          }
        ]
      }
    },
    "/api/review": {
      "get": {
        "tags": [
          "review"
        ],
        "summary": "Active review session",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/review/fields": {
      "patch": {
        "tags": [
          "review"
        ],
        "summary": "Edit extracted fields or the draft reply",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "request",
            "in": "body",
            "required": true,
            "schema": {
              "type": "object"
            },
            "description": "Field edits"
          }
        ]
      }
    },
    "/api/review/classification": {
      "put": {
        "tags": [
          "review"
        ],
        "summary": "Change request type",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "request",
            "in": "body",
            "required": true,
            "schema": {
              "type": "object"
            },
            "description": "Request type"
          }
        ]
      }
    },
    "/api/review/routing": {
      "put": {
        "tags": [
          "review"
        ],
        "summary": "Change routing",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "request",
            "in": "body",
            "required": true,
            "schema": {
              "type": "object"
            },
            "description": "Routing"
          }
        ]
      }
    },
    "/api/review/reset": {
      "post": {
        "tags": [
          "review"
        ],
        "summary": "Reset to the agent suggestion",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/review/save": {
      "post": {
        "tags": [
          "review"
        ],
        "summary": "Save draft",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/review/request-info": {
      "post": {
        "tags": [
          "review"
        ],
        "summary": "Request more information",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/review/approve": {
      "post": {
        "tags": [
          "review"
        ],
        "summary": "Approve and create ticket",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          },
          "409": {
            "description": "Approval blocked"
          }
        }
      }
    },
    "/api/tickets": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "List tickets",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "status",
            "in": "query",
            "required": false,
            "type": "string",
            "description": "Ticket status or All"
          },
          {
            "name": "queue",
            "in": "query",
            "required": false,
            "type": "string",
            "description": "Queue or All"
          },
          {
            "name": "assignee",
            "in": "query",
            "required": false,
            "type": "string",
            "description": "Assignee or All"
          }
        ]
      }
    },
    "/api/tickets/metrics": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "Ticket counts by status",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/tickets/{id}": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "Ticket details",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string",
            "description": "Ticket ID"
          }
        ]
      }
    },
    "/api/tickets/{id}/status": {
      "post": {
        "tags": [
          "tickets"
        ],
        "summary": "Update ticket status",
        "produces": [
          "application/json"
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "type": "string",
            "description": "Ticket ID"
          },
          {
            "name": "request",
            "in": "body",
            "required": true,
            "schema": {
              "type": "object"
            },
            "description": "New status"
          },
          {
            "name": "X-Admin-Key",
            "in": "header",
            "required": true,
            "type": "string"
          }
        ]
      }
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
