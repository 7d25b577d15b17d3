// Package docs registers the dataloom OpenAPI document with swag.
// Regenerate with: swag init -g cmd/root.go -o internal/docs
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
        "/session": {
            "get": {
                "description": "Returns the current page and the active dataset of the caller's session. A session cookie is issued when missing.",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Get session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.SessionResponse"}}
                }
            }
        },
        "/session/page": {
            "put": {
                "description": "Switches the session to one of Upload, Analysis, Visualization or API.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Set page",
                "parameters": [
                    {"description": "Target page", "name": "page", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.pageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.SessionResponse"}},
                    "400": {"description": "Unknown page", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/upload": {
            "post": {
                "description": "Parses a CSV, TSV, XLSX or XLS file and makes it the session's active table. On failure the previous table is kept.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["data"],
                "summary": "Upload dataset",
                "parameters": [
                    {"type": "file", "description": "Data file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Worksheet name", "name": "sheet", "in": "query"},
                    {"type": "integer", "description": "1-based worksheet index", "name": "sheet_index", "in": "query"},
                    {"type": "string", "description": "CSV delimiter (use tab for tab)", "name": "delimiter", "in": "query"},
                    {"type": "string", "description": "Decimal separator", "name": "decimal", "in": "query"},
                    {"type": "string", "description": "Thousands separator", "name": "thousands", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.UploadResponse"}},
                    "400": {"description": "Empty or malformed file", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "415": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/table": {
            "get": {
                "description": "Schema and leading rows of the session's active table.",
                "produces": ["application/json"],
                "tags": ["data"],
                "summary": "Get table",
                "parameters": [
                    {"type": "integer", "default": 100, "description": "Rows to return", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.TableInfo"}},
                    "409": {"description": "No dataset loaded", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/table/filter": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["data"],
                "summary": "Filter table",
                "parameters": [
                    {"description": "Column and value", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.TransformRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.TableInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "409": {"description": "No dataset loaded", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/table/sort": {
            "post": {
                "description": "Stable sort; missing cells go last. Ascending unless ascending is false.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["data"],
                "summary": "Sort table",
                "parameters": [
                    {"description": "Column and direction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.TransformRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.TableInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "409": {"description": "No dataset loaded", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/table/group": {
            "post": {
                "description": "One row per distinct non-missing value of column, ascending, with aggs applied per column.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["data"],
                "summary": "Group table",
                "parameters": [
                    {"description": "Grouping column and aggregations", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.TransformRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.TableInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "409": {"description": "No dataset loaded", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/summary": {
            "get": {
                "description": "Per-column statistics of the active table as JSON, YAML or a Markdown report.",
                "produces": ["application/json", "text/markdown"],
                "tags": ["analysis"],
                "summary": "Summary statistics",
                "parameters": [
                    {"type": "string", "default": "json", "description": "json, yaml or markdown", "name": "format", "in": "query"},
                    {"type": "boolean", "description": "Include Pearson correlations", "name": "correlations", "in": "query"},
                    {"type": "boolean", "description": "Include robust-z outlier counts", "name": "outliers", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.Report"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "409": {"description": "No dataset loaded", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/chart": {
            "post": {
                "description": "Validates column kinds and grouping and returns plot-ready series per group.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["charts"],
                "summary": "Build chart",
                "parameters": [
                    {"description": "Chart request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/chart.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/chart.Spec"}},
                    "409": {"description": "No dataset loaded", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "422": {"description": "MissingColumn, TypeMismatch or InvalidGrouping", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/chart/render": {
            "get": {
                "produces": ["image/png", "image/svg+xml"],
                "tags": ["charts"],
                "summary": "Render chart",
                "parameters": [
                    {"type": "string", "description": "scatter, line, bar or histogram", "name": "kind", "in": "query", "required": true},
                    {"type": "string", "description": "X column", "name": "x", "in": "query", "required": true},
                    {"type": "string", "description": "Y column", "name": "y", "in": "query"},
                    {"type": "string", "description": "Group column", "name": "group", "in": "query"},
                    {"type": "string", "default": "png", "description": "png or svg", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "409": {"description": "No dataset loaded", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "422": {"description": "Invalid chart request or nothing to draw", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/fetch": {
            "post": {
                "description": "Single GET with bearer auth and no retries. Responses are cached for the configured TTL.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["api"],
                "summary": "Fetch API data",
                "parameters": [
                    {"description": "Endpoint and query parameters", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.FetchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.FetchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "502": {"description": "NetworkError, Timeout, HTTPError or DecodeError", "schema": {"$ref": "#/definitions/server.errorBody"}},
                    "503": {"description": "API not configured", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        },
        "/fetch/health": {
            "get": {
                "description": "GET health on the configured API; healthy when it answers status \"healthy\".",
                "produces": ["application/json"],
                "tags": ["api"],
                "summary": "API health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        },
        "/history": {
            "get": {
                "description": "Recent uploads and API fetches, newest first. Empty when the activity log is disabled.",
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Activity history",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.Event"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/server.errorBody"}}
                }
            }
        }
    },
    "definitions": {
        "analysis.Report": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "rows": {"type": "integer"},
                "columns": {"type": "integer"},
                "numeric_columns": {"type": "array", "items": {"type": "string"}},
                "categorical_columns": {"type": "array", "items": {"type": "string"}},
                "missing_total": {"type": "integer"},
                "column_summaries": {"type": "array", "items": {"$ref": "#/definitions/analysis.ColumnSummary"}},
                "correlations": {"$ref": "#/definitions/analysis.CorrMatrix"}
            }
        },
        "analysis.ColumnSummary": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "kind": {"type": "string", "enum": ["numeric", "datetime", "boolean", "categorical"]},
                "count": {"type": "integer"},
                "null_count": {"type": "integer"},
                "numeric": {"$ref": "#/definitions/analysis.NumericStats"},
                "categorical": {"$ref": "#/definitions/analysis.CategoricalStats"},
                "first": {"type": "string"},
                "last": {"type": "string"}
            }
        },
        "analysis.NumericStats": {
            "type": "object",
            "properties": {
                "mean": {"type": "number"},
                "std": {"type": "number"},
                "min": {"type": "number"},
                "25%": {"type": "number"},
                "50%": {"type": "number"},
                "75%": {"type": "number"},
                "max": {"type": "number"},
                "outliers_count": {"type": "integer"},
                "outliers_max_abs_z": {"type": "number"},
                "outlier_threshold": {"type": "number"}
            }
        },
        "analysis.CategoricalStats": {
            "type": "object",
            "properties": {
                "unique": {"type": "integer"},
                "top": {"type": "string"},
                "freq": {"type": "integer"},
                "top_values": {"type": "array", "items": {"$ref": "#/definitions/analysis.CategoryCount"}}
            }
        },
        "analysis.CategoryCount": {
            "type": "object",
            "properties": {
                "value": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "analysis.CorrMatrix": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "values": {"type": "array", "items": {"type": "array", "items": {"type": "number"}}}
            }
        },
        "chart.Request": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["scatter", "line", "bar", "histogram"]},
                "x": {"type": "string"},
                "y": {"type": "string"},
                "group": {"type": "string"}
            }
        },
        "chart.Spec": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "x": {"type": "string"},
                "y": {"type": "string"},
                "group": {"type": "string"},
                "x_time": {"type": "boolean"},
                "partitions": {"type": "array", "items": {"$ref": "#/definitions/chart.Partition"}},
                "series": {"type": "array", "items": {"$ref": "#/definitions/chart.Series"}}
            }
        },
        "chart.Partition": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "rows": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "chart.Series": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "points": {"type": "array", "items": {"type": "object", "properties": {"x": {"type": "number"}, "y": {"type": "number"}}}},
                "bars": {"type": "array", "items": {"type": "object", "properties": {"label": {"type": "string"}, "value": {"type": "number"}}}},
                "bins": {"type": "array", "items": {"type": "object", "properties": {"lo": {"type": "number"}, "hi": {"type": "number"}, "count": {"type": "integer"}}}}
            }
        },
        "server.ColumnInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "kind": {"type": "string"}
            }
        },
        "server.TableInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "source": {"type": "string"},
                "rows": {"type": "integer"},
                "columns": {"type": "array", "items": {"$ref": "#/definitions/server.ColumnInfo"}},
                "fingerprint": {"type": "string"},
                "data": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "server.SessionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "page": {"type": "string"},
                "pages": {"type": "array", "items": {"type": "string"}},
                "has_table": {"type": "boolean"},
                "table": {"$ref": "#/definitions/server.TableInfo"},
                "updated_at": {"type": "string"}
            }
        },
        "server.pageRequest": {
            "type": "object",
            "properties": {
                "page": {"type": "string", "enum": ["Upload", "Analysis", "Visualization", "API"]}
            }
        },
        "server.UploadResponse": {
            "type": "object",
            "properties": {
                "table": {"$ref": "#/definitions/server.TableInfo"},
                "cached": {"type": "boolean"}
            }
        },
        "server.TransformRequest": {
            "type": "object",
            "properties": {
                "column": {"type": "string"},
                "value": {"type": "string"},
                "ascending": {"type": "boolean"},
                "aggs": {"type": "object", "additionalProperties": {"type": "string", "enum": ["sum", "mean", "count", "min", "max"]}},
                "apply": {"type": "boolean"},
                "limit": {"type": "integer"}
            }
        },
        "server.FetchRequest": {
            "type": "object",
            "properties": {
                "endpoint": {"type": "string"},
                "params": {"type": "object", "additionalProperties": {"type": "string"}},
                "load": {"type": "boolean"}
            }
        },
        "server.FetchResponse": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "status": {"type": "integer"},
                "raw": {"type": "object"},
                "tabular": {"type": "boolean"},
                "table_error": {"type": "string"},
                "table": {"$ref": "#/definitions/server.TableInfo"},
                "loaded": {"type": "boolean"},
                "cached": {"type": "boolean"}
            }
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {
                "configured": {"type": "boolean"},
                "healthy": {"type": "boolean"}
            }
        },
        "server.errorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "column": {"type": "string"},
                "upstream_status": {"type": "integer"}
            }
        },
        "store.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "session_id": {"type": "string"},
                "kind": {"type": "string", "enum": ["load", "fetch"]},
                "source": {"type": "string"},
                "rows": {"type": "integer"},
                "columns": {"type": "integer"},
                "status": {"type": "integer"},
                "outcome": {"type": "string"},
                "created_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "dataloom API",
	Description:      "Upload tabular data, summarize it, build charts and pull data from an external JSON API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
