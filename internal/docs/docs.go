// Package docs registers the OpenAPI document served under /swagger/.
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
        "/api/catalogue": {
            "get": {
                "produces": ["application/json"],
                "tags": ["prediction"],
                "summary": "Input catalogue",
                "description": "Building codes, categories, numeric bounds and flags accepted by /api/predict",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/features.CatalogueData"}}
                }
            }
        },
        "/api/predict": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prediction"],
                "summary": "Predict energy consumption",
                "description": "Assembles the feature record, runs the predictor and returns the prediction with normalized feature contributions",
                "parameters": [
                    {
                        "description": "Building and weather features",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.PredictRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PredictResponse"}},
                    "400": {"description": "Invalid or missing fields", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "415": {"description": "Content type is not application/json", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "502": {"description": "Predictor failed", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "504": {"description": "Request timed out", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/ratelimit": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Rate limits of the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ratelimit.StatusResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.AppError": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "built_year: must be between 1899 and 2019"},
                "code": {"type": "string", "example": "VALIDATION_ERROR"},
                "category": {"type": "string", "example": "validation"},
                "http_status": {"type": "integer", "example": 400},
                "timestamp": {"type": "string", "format": "date-time"},
                "request_id": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "features.Bound": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "label": {"type": "string"},
                "unit": {"type": "string"},
                "min": {"type": "number"},
                "max": {"type": "number"},
                "default": {"type": "number"},
                "step": {"type": "number"}
            }
        },
        "features.Flag": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "features.CatalogueData": {
            "type": "object",
            "properties": {
                "campus_buildings": {"type": "array", "items": {"type": "string"}},
                "categories": {"type": "array", "items": {"type": "string"}},
                "bounds": {"type": "array", "items": {"$ref": "#/definitions/features.Bound"}},
                "flags": {"type": "array", "items": {"$ref": "#/definitions/features.Flag"}},
                "default_date": {"type": "string", "example": "2018-01-01"},
                "default_time": {"type": "string", "example": "00:15"},
                "default_category": {"type": "string", "example": "mixed use"}
            }
        },
        "types.PredictRequest": {
            "type": "object",
            "required": [
                "date", "time", "campus_building", "category", "built_year",
                "gross_floor_area", "room_area", "capacity", "apparent_temperature",
                "air_temperature", "dew_point_temperature", "relative_humidity",
                "wind_speed", "wind_direction", "is_holiday", "is_semester", "is_exam"
            ],
            "properties": {
                "date": {"type": "string", "example": "2018-01-01"},
                "time": {"type": "string", "example": "00:15"},
                "campus_building": {"type": "string", "example": "115"},
                "category": {"type": "string", "example": "mixed use"},
                "built_year": {"type": "integer", "minimum": 1899, "maximum": 2019, "example": 1967},
                "gross_floor_area": {"type": "number", "minimum": 4250, "maximum": 5459749, "example": 145558},
                "room_area": {"type": "number", "minimum": 253, "maximum": 15176, "example": 1788},
                "capacity": {"type": "integer", "minimum": 0, "maximum": 1595, "example": 79},
                "apparent_temperature": {"type": "number", "minimum": -7, "maximum": 42.4, "example": 16.0},
                "air_temperature": {"type": "number", "minimum": -3, "maximum": 44.4, "example": 15.9},
                "dew_point_temperature": {"type": "number", "minimum": -6, "maximum": 23.6, "example": 13.6},
                "relative_humidity": {"type": "integer", "minimum": 7, "maximum": 100, "example": 86},
                "wind_speed": {"type": "number", "minimum": 0, "maximum": 63, "example": 5.4},
                "wind_direction": {"type": "integer", "minimum": 0, "maximum": 359, "example": 134},
                "is_holiday": {"type": "integer", "enum": [0, 1], "example": 0},
                "is_semester": {"type": "integer", "enum": [0, 1], "example": 0},
                "is_exam": {"type": "integer", "enum": [0, 1], "example": 0}
            }
        },
        "analysis.Contributor": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "gross_floor_area"},
                "value": {"type": "number"},
                "max": {"type": "number"},
                "ratio": {"type": "number"},
                "contribution": {"type": "number", "example": 12.5}
            }
        },
        "analysis.ContributionTable": {
            "type": "object",
            "properties": {
                "defined": {"type": "boolean"},
                "ratio_sum": {"type": "number"},
                "contributors": {"type": "array", "items": {"$ref": "#/definitions/analysis.Contributor"}}
            }
        },
        "types.InputSummary": {
            "type": "object",
            "properties": {
                "date_time": {"type": "string", "example": "2018-01-01 at 00:15"},
                "building_id": {"type": "string", "example": "115"},
                "temperature": {"type": "string"},
                "humidity": {"type": "string"},
                "wind": {"type": "string"},
                "conditions": {"type": "string"}
            }
        },
        "types.PredictResponse": {
            "type": "object",
            "properties": {
                "prediction": {"type": "number", "example": 123.456},
                "formatted": {"type": "string", "example": "123.456"},
                "unit": {"type": "string", "example": "kWh"},
                "predictor": {"type": "string", "example": "campus-energy-linear"},
                "record": {"type": "object", "additionalProperties": true},
                "contributions": {"$ref": "#/definitions/analysis.ContributionTable"},
                "inputs": {"$ref": "#/definitions/types.InputSummary"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "predictor": {"type": "string", "example": "campus-energy-linear"},
                "version": {"type": "string", "example": "2018.1"},
                "rate_limit": {"type": "string", "example": "memory"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "ratelimit.StatusResponse": {
            "type": "object",
            "properties": {
                "ip": {"type": "string"},
                "per_minute": {"type": "integer", "example": 120},
                "predict_per_minute": {"type": "integer", "example": 30},
                "backend": {"type": "string", "example": "memory"},
                "stats": {"type": "object"},
                "timestamp": {"type": "string"}
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
	Title:            "Building Energy Consumption Predictor API",
	Description:      "Predicts building energy consumption in kWh and explains it with normalized feature contributions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
