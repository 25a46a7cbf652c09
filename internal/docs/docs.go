// Package docs holds the Swagger document served at /swagger/index.html.
// Regenerate with swag init after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/accounts/summary": {
            "get": {
                "summary": "Account summary",
                "tags": [
                    "accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Balance, investments and net worth. Investments fall back to zero with a message when the investment service is unreachable.",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/categories": {
            "post": {
                "summary": "Create a category",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Create a new transaction category for the user",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Category details",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateCategoryRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Category created"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Parent belongs to another user",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Name taken",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "summary": "List categories",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "List system templates and the user's categories",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "required": false,
                        "description": "Filter by type (INCOME/EXPENSE)",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid type",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/categories/root": {
            "get": {
                "summary": "List root categories",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/categories/{id}/subcategories": {
            "get": {
                "summary": "List subcategories",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Parent category ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Category not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/categories/{id}": {
            "get": {
                "summary": "Get category by ID",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Category ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Category not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "summary": "Update a category",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Category ID",
                        "type": "string"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Fields to update",
                        "schema": {
                            "$ref": "#/definitions/handlers.UpdateCategoryRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input or hierarchy violation",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "System category or not owner",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Category not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Name taken",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete a category",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Category ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "403": {
                        "description": "System category or not owner",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Category not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Category in use or has children",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/categories/name/{name}": {
            "get": {
                "summary": "Get category by name",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "The user's own category wins over a system template",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "name",
                        "in": "path",
                        "required": true,
                        "description": "Category name",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Category not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/categories/templates": {
            "get": {
                "summary": "List system templates",
                "tags": [
                    "categories"
                ],
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
        "/categories/initialize-for-user/{userId}": {
            "post": {
                "summary": "Initialize categories for a user",
                "tags": [
                    "categories"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Initialized"
                    },
                    "400": {
                        "description": "Invalid user ID",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/investments": {
            "post": {
                "summary": "Create an investment",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Records an investment and, when enabled, mirrors it as an expense in the account service. Mirror failures never fail the request.",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Investment details",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateInvestmentRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Investment created"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "summary": "List investments",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page number (default 1)",
                        "type": "integer"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "required": false,
                        "description": "Items per page (default 20, max 100)",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/investments/{id}": {
            "get": {
                "summary": "Get investment by ID",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Investment ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Investment not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "summary": "Update an investment",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Investment ID",
                        "type": "string"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Fields to update",
                        "schema": {
                            "$ref": "#/definitions/handlers.UpdateInvestmentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Investment not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete an investment",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Investment ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Investment not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/investments/type/{type}": {
            "get": {
                "summary": "List investments by type",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "type",
                        "in": "path",
                        "required": true,
                        "description": "Investment type",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/investments/portfolio/summary": {
            "get": {
                "summary": "Portfolio summary",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Totals, profit and ROI overall and per investment type",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/investments/user/{userId}": {
            "get": {
                "summary": "Total investment value of a user",
                "tags": [
                    "investments"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "userId",
                        "in": "path",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid user ID",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reports/monthly": {
            "get": {
                "summary": "Monthly summary",
                "tags": [
                    "reports"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Income, expenses, savings rate and per-category breakdowns for one month",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "required": false,
                        "description": "Year (default current)",
                        "type": "integer"
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "required": false,
                        "description": "Month 1-12 (default current)",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid month",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reports/expenses/by-category": {
            "get": {
                "summary": "Monthly expenses by category",
                "tags": [
                    "reports"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "required": false,
                        "description": "Year (default current)",
                        "type": "integer"
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "required": false,
                        "description": "Month 1-12 (default current)",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid month",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reports/incomes/by-category": {
            "get": {
                "summary": "Monthly incomes by category",
                "tags": [
                    "reports"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "required": false,
                        "description": "Year (default current)",
                        "type": "integer"
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "required": false,
                        "description": "Month 1-12 (default current)",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid month",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reports/expenses/all-by-category": {
            "get": {
                "summary": "All-time expenses by category",
                "tags": [
                    "reports"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/reports/incomes/all-by-category": {
            "get": {
                "summary": "All-time incomes by category",
                "tags": [
                    "reports"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/reports/monthly-comparison": {
            "get": {
                "summary": "Month over month comparison",
                "tags": [
                    "reports"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Summaries for the last N months, most recent first",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "months",
                        "in": "query",
                        "required": false,
                        "description": "Number of months (default 6, max 24)",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid months",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions": {
            "post": {
                "summary": "Create a transaction",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Record an income or expense. The category may be given by id or by name.",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Transaction details",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateTransactionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Transaction created"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Category belongs to another user",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Category not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "get": {
                "summary": "List transactions",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Paginated list ordered by date, newest first",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "description": "Page number (default 1)",
                        "type": "integer"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "required": false,
                        "description": "Items per page (default 20, max 100)",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions/{id}": {
            "get": {
                "summary": "Get transaction by ID",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Transaction ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Transaction not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "summary": "Update a transaction",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Transaction ID",
                        "type": "string"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Fields to update",
                        "schema": {
                            "$ref": "#/definitions/handlers.UpdateTransactionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Transaction not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete a transaction",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Transaction ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Transaction not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions/type/{type}": {
            "get": {
                "summary": "List transactions by type",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "type",
                        "in": "path",
                        "required": true,
                        "description": "INCOME or EXPENSE",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid type",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions/category/{categoryId}": {
            "get": {
                "summary": "List transactions by category",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "categoryId",
                        "in": "path",
                        "required": true,
                        "description": "Category ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid category ID",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions/date-range": {
            "get": {
                "summary": "List transactions in a date range",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Both bounds are inclusive. A date-only end_date covers the whole day.",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "start_date",
                        "in": "query",
                        "required": true,
                        "description": "Start (YYYY-MM-DD or RFC 3339)",
                        "type": "string"
                    },
                    {
                        "name": "end_date",
                        "in": "query",
                        "required": true,
                        "description": "End (YYYY-MM-DD or RFC 3339)",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid dates",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions/month": {
            "get": {
                "summary": "List transactions by month",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "required": false,
                        "description": "Year (default current)",
                        "type": "integer"
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "required": false,
                        "description": "Month 1-12 (default current)",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid month",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions/recent": {
            "get": {
                "summary": "List recent transactions",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/transactions/search": {
            "get": {
                "summary": "Search transactions",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "keyword",
                        "in": "query",
                        "required": true,
                        "description": "Keyword",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Missing keyword",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/transactions/balance": {
            "get": {
                "summary": "Get balance",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/transactions/balance/date-range": {
            "get": {
                "summary": "Get balance in a date range",
                "tags": [
                    "transactions"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "start_date",
                        "in": "query",
                        "required": true,
                        "description": "Start (YYYY-MM-DD or RFC 3339)",
                        "type": "string"
                    },
                    {
                        "name": "end_date",
                        "in": "query",
                        "required": true,
                        "description": "End (YYYY-MM-DD or RFC 3339)",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid dates",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/register": {
            "post": {
                "summary": "Register a new user",
                "tags": [
                    "users"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Creates the identity, the local profile with default settings, and the user's categories",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "User registration data",
                        "schema": {
                            "$ref": "#/definitions/handlers.RegisterRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "User registered"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Email or username taken",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Identity provider error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/login": {
            "post": {
                "summary": "Login",
                "tags": [
                    "users"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Authenticate with email or username and password",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Credentials",
                        "schema": {
                            "$ref": "#/definitions/handlers.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Tokens and profile"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "423": {
                        "description": "Account locked",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Identity provider error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/refresh-token": {
            "post": {
                "summary": "Refresh tokens",
                "tags": [
                    "users"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Refresh token",
                        "schema": {
                            "$ref": "#/definitions/handlers.RefreshTokenRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Invalid token",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/users/profile": {
            "get": {
                "summary": "Get profile",
                "tags": [
                    "users"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "User not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "summary": "Update profile",
                "tags": [
                    "users"
                ],
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Fields to update",
                        "schema": {
                            "$ref": "#/definitions/handlers.UpdateProfileRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "User not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete account",
                "tags": [
                    "users"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Removes the identity, the profile and the settings",
                "parameters": [
                    {
                        "name": "X-User-Id",
                        "in": "header",
                        "required": true,
                        "description": "User ID",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "404": {
                        "description": "User not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Identity provider error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "tags": [
                    "health"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "$ref": "#/definitions/handlers.ErrorDetail"
                }
            }
        },
        "handlers.CreateCategoryRequest": {
            "type": "object"
        },
        "handlers.UpdateCategoryRequest": {
            "type": "object"
        },
        "handlers.CreateTransactionRequest": {
            "type": "object"
        },
        "handlers.UpdateTransactionRequest": {
            "type": "object"
        },
        "handlers.CreateInvestmentRequest": {
            "type": "object"
        },
        "handlers.UpdateInvestmentRequest": {
            "type": "object"
        },
        "handlers.RegisterRequest": {
            "type": "object"
        },
        "handlers.LoginRequest": {
            "type": "object"
        },
        "handlers.RefreshTokenRequest": {
            "type": "object"
        },
        "handlers.UpdateProfileRequest": {
            "type": "object"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "MyFinances API",
	Description:      "Personal finance services: transactions, categories, reports, investments and users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
