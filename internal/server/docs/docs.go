// Package docs holds the OpenAPI document served at /swagger/.
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
        "/api/benchmarks": {
            "get": {
                "description": "Per benchmark command: revisions, failures and the change between the oldest and newest measurement.",
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Summarise benchmarks",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/report.Report"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/rows": {
            "get": {
                "description": "Aggregates the result cache into one row per timing sample and one row per failed measurement.",
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "List plot rows",
                "parameters": [
                    {"type": "string", "description": "Only rows of this benchmark command", "name": "command", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/aggregate.PlotRow"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "aggregate.PlotRow": {
            "type": "object",
            "properties": {
                "command": {"type": "string"},
                "git_date": {"type": "string"},
                "git_msg": {"type": "string"},
                "git_sha": {"type": "string"},
                "time": {"type": "number", "x-nullable": true}
            }
        },
        "report.BenchmarkSummary": {
            "type": "object",
            "properties": {
                "command": {"type": "string"},
                "failures": {"type": "integer"},
                "median_change_pct": {"type": "number"},
                "newest": {"$ref": "#/definitions/report.RevisionStats"},
                "oldest": {"$ref": "#/definitions/report.RevisionStats"},
                "revisions": {"type": "integer"}
            }
        },
        "report.Report": {
            "type": "object",
            "properties": {
                "benchmarks": {"type": "array", "items": {"$ref": "#/definitions/report.BenchmarkSummary"}},
                "meta": {"type": "object"}
            }
        },
        "report.RevisionStats": {
            "type": "object",
            "properties": {
                "git_date": {"type": "string"},
                "git_sha": {"type": "string"},
                "stats": {"$ref": "#/definitions/report.Stats"}
            }
        },
        "report.Stats": {
            "type": "object",
            "properties": {
                "max": {"type": "number"},
                "mean": {"type": "number"},
                "median": {"type": "number"},
                "min": {"type": "number"},
                "p95": {"type": "number"},
                "sample_count": {"type": "integer"},
                "stddev": {"type": "number"}
            }
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "fineregr API",
	Description:      "Benchmark results across the history of a git repository",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
