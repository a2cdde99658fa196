package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academy Scheduler API",
        "description": "Recurring class templates, daily class lifecycle, make-up bookings, salary and attendance reporting.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Directory",
            "description": "Teachers and students"
        },
        {
            "name": "Weekly Classes",
            "description": "Recurring class templates"
        },
        {
            "name": "Holidays",
            "description": "Dates skipped by expansion"
        },
        {
            "name": "Daily Classes",
            "description": "Dated class instances and their lifecycle"
        },
        {
            "name": "Advance Classes",
            "description": "Make-up bookings"
        },
        {
            "name": "Salary Reports",
            "description": "Monthly pay aggregation and exports"
        },
        {
            "name": "Reports",
            "description": "Cached reporting views"
        },
        {
            "name": "Dashboard",
            "description": "Administrator overview"
        }
    ],
    "paths": {
        "/teachers": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List teachers",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Directory"
                ],
                "summary": "Add teacher",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertTeacherRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "Get teacher",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/students": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List students",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Directory"
                ],
                "summary": "Add student",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertStudentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/students/{id}": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "Get student",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/weekly-classes": {
            "get": {
                "tags": [
                    "Weekly Classes"
                ],
                "summary": "List weekly class templates",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "teacherId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Teacher ID"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "dayOfWeek",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Monday..Sunday"
                    },
                    {
                        "name": "includeInactive",
                        "in": "query",
                        "required": false,
                        "type": "boolean",
                        "description": "Include deactivated templates"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Weekly Classes"
                ],
                "summary": "Create weekly class template",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateWeeklyClassRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/weekly-classes/{id}": {
            "get": {
                "tags": [
                    "Weekly Classes"
                ],
                "summary": "Get weekly class template",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Weekly Classes"
                ],
                "summary": "Update weekly class template",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateWeeklyClassRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Weekly Classes"
                ],
                "summary": "Deactivate weekly class template",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/holidays": {
            "get": {
                "tags": [
                    "Holidays"
                ],
                "summary": "List public holidays",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "from",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "First date (YYYY-MM-DD)"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Last date (YYYY-MM-DD)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Holidays"
                ],
                "summary": "Register public holiday",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateHolidayRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/holidays/{id}": {
            "delete": {
                "tags": [
                    "Holidays"
                ],
                "summary": "Remove public holiday",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/daily-classes": {
            "get": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "List daily classes",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "from",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "First UTC date"
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Last UTC date"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Comma separated statuses"
                    },
                    {
                        "name": "courseId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Course ID"
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Teacher ID"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "weeklyClassId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Weekly class ID"
                    },
                    {
                        "name": "includeInactive",
                        "in": "query",
                        "required": false,
                        "type": "boolean",
                        "description": "Include deleted classes"
                    },
                    {
                        "name": "tz",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Viewer timezone (IANA)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Create daily class",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateDailyClassRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/daily-classes/{id}": {
            "get": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Get daily class",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "tz",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Viewer timezone (IANA)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "patch": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Edit daily class notes or meeting link",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateDailyClassRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Soft delete daily class",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/daily-classes/{id}/status": {
            "post": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Change daily class status",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TransitionRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/daily-classes/{id}/feedback": {
            "post": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Rate a daily class",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/FeedbackRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/daily-classes/expand": {
            "post": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Materialise weekly templates into daily classes",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "async",
                        "in": "query",
                        "required": false,
                        "type": "boolean",
                        "description": "Queue the run instead of waiting"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExpandRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/daily-classes/stream": {
            "get": {
                "tags": [
                    "Daily Classes"
                ],
                "summary": "Live daily class feed (server-sent events)",
                "produces": [
                    "text/event-stream"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "access_token",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Bearer token for EventSource clients"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/advance-classes": {
            "get": {
                "tags": [
                    "Advance Classes"
                ],
                "summary": "List make-up classes",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "weeklyClassId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Weekly class ID"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "scheduled, completed or cancelled"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Advance Classes"
                ],
                "summary": "Book a make-up class",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ScheduleAdvanceRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/advance-classes/{id}/complete": {
            "post": {
                "tags": [
                    "Advance Classes"
                ],
                "summary": "Mark make-up class completed",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/advance-classes/{id}/cancel": {
            "post": {
                "tags": [
                    "Advance Classes"
                ],
                "summary": "Cancel make-up class",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/salary-reports": {
            "get": {
                "tags": [
                    "Salary Reports"
                ],
                "summary": "List salary reports",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "teacherId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Teacher ID"
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Month"
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Year"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/salary-reports/generate": {
            "post": {
                "tags": [
                    "Salary Reports"
                ],
                "summary": "Generate salary reports for a month",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "async",
                        "in": "query",
                        "required": false,
                        "type": "boolean",
                        "description": "Queue the run instead of waiting"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateSalaryRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/salary-reports/{id}": {
            "get": {
                "tags": [
                    "Salary Reports"
                ],
                "summary": "Get salary report",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/salary-reports/export": {
            "post": {
                "tags": [
                    "Salary Reports"
                ],
                "summary": "Export salary reports to CSV, PDF or XLSX",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExportSalaryRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/export/{token}": {
            "get": {
                "tags": [
                    "Salary Reports"
                ],
                "summary": "Download an export through its signed link",
                "produces": [
                    "application/octet-stream"
                ],
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "403": {
                        "description": "Link expired or invalid"
                    }
                },
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/reports/daily": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Classes of one local day grouped by status and teacher",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "date",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Local date (YYYY-MM-DD)"
                    },
                    {
                        "name": "tz",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Viewer timezone (IANA)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/students/{id}/attendance": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Monthly attendance of a student",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "Month"
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "Year"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/teachers/{id}/summary": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Live salary preview of a teacher for a month",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "Month"
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "required": true,
                        "type": "integer",
                        "description": "Year"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/dashboard": {
            "get": {
                "tags": [
                    "Dashboard"
                ],
                "summary": "Administrator landing summary",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "tz",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Viewer timezone (IANA)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "UpsertTeacherRequest": {
            "type": "object",
            "required": [
                "name"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "hourlyRate": {
                    "type": "string"
                },
                "timezone": {
                    "type": "string"
                },
                "isActive": {
                    "type": "boolean"
                }
            }
        },
        "UpsertStudentRequest": {
            "type": "object",
            "required": [
                "name"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "parentName": {
                    "type": "string"
                },
                "timezone": {
                    "type": "string"
                },
                "isActive": {
                    "type": "boolean"
                }
            }
        },
        "CreateWeeklyClassRequest": {
            "type": "object",
            "required": [
                "teacherId",
                "studentId",
                "dayOfWeek",
                "startTime",
                "endTime",
                "subject"
            ],
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "studentId": {
                    "type": "string"
                },
                "dayOfWeek": {
                    "type": "string"
                },
                "startTime": {
                    "type": "string"
                },
                "endTime": {
                    "type": "string"
                },
                "timezone": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "courseId": {
                    "type": "string"
                }
            }
        },
        "UpdateWeeklyClassRequest": {
            "type": "object",
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "studentId": {
                    "type": "string"
                },
                "dayOfWeek": {
                    "type": "string"
                },
                "startTime": {
                    "type": "string"
                },
                "endTime": {
                    "type": "string"
                },
                "timezone": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "courseId": {
                    "type": "string"
                },
                "isActive": {
                    "type": "boolean"
                }
            }
        },
        "CreateHolidayRequest": {
            "type": "object",
            "required": [
                "name",
                "date"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                }
            }
        },
        "CreateDailyClassRequest": {
            "type": "object",
            "required": [
                "teacherId",
                "studentId",
                "date",
                "time"
            ],
            "properties": {
                "teacherId": {
                    "type": "string"
                },
                "studentId": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "time": {
                    "type": "string"
                },
                "timezone": {
                    "type": "string"
                },
                "duration": {
                    "type": "integer"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "scheduled",
                        "trial",
                        "advance"
                    ]
                },
                "courseId": {
                    "type": "string"
                },
                "courseName": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "zoomLink": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "weeklyClassId": {
                    "type": "string"
                }
            }
        },
        "UpdateDailyClassRequest": {
            "type": "object",
            "properties": {
                "notes": {
                    "type": "string"
                },
                "zoomLink": {
                    "type": "string"
                }
            }
        },
        "TransitionRequest": {
            "type": "object",
            "required": [
                "status"
            ],
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "scheduled",
                        "running",
                        "taken",
                        "absent",
                        "leave",
                        "declined",
                        "suspended",
                        "rescheduled",
                        "refused",
                        "trial",
                        "advance"
                    ]
                }
            }
        },
        "FeedbackRequest": {
            "type": "object",
            "required": [
                "rating"
            ],
            "properties": {
                "rating": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 5
                },
                "feedback": {
                    "type": "string"
                }
            }
        },
        "ExpandRequest": {
            "type": "object",
            "required": [
                "from",
                "to"
            ],
            "properties": {
                "from": {
                    "type": "string"
                },
                "to": {
                    "type": "string"
                }
            }
        },
        "ScheduleAdvanceRequest": {
            "type": "object",
            "required": [
                "weeklyClassId",
                "date",
                "time"
            ],
            "properties": {
                "weeklyClassId": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "time": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "GenerateSalaryRequest": {
            "type": "object",
            "required": [
                "month",
                "year"
            ],
            "properties": {
                "month": {
                    "type": "integer"
                },
                "year": {
                    "type": "integer"
                }
            }
        },
        "ExportSalaryRequest": {
            "type": "object",
            "required": [
                "month",
                "year"
            ],
            "properties": {
                "month": {
                    "type": "integer"
                },
                "year": {
                    "type": "integer"
                },
                "teacherId": {
                    "type": "string"
                },
                "format": {
                    "type": "string",
                    "enum": [
                        "csv",
                        "pdf",
                        "xlsx"
                    ]
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    },
    "x-operational-endpoints": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "A dependency is unavailable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
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
