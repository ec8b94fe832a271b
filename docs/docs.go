// Package docs holds the Swagger document of the hydrohub API.
// Regenerate with `swag init -g cmd/hydrohub/main.go` after changing handler annotations.
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
        "/units": {
            "get": {"tags": ["units"], "summary": "List units", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Unit"}}}}}
        },
        "/units/{unit}/sensors": {
            "get": {"tags": ["units"], "summary": "Get current sensor readings", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Unit ID", "name": "unit", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SensorReading"}}}}
        },
        "/units/{unit}/relays": {
            "get": {"tags": ["units"], "summary": "Get relay states", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Unit ID", "name": "unit", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RelayStatus"}}}}
        },
        "/units/{unit}/relay": {
            "post": {"tags": ["units"], "summary": "Set relay states", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Unit ID", "name": "unit", "in": "path", "required": true},
                    {"description": "Relays to change", "name": "relays", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RelayPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RelayStatus"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/units/{unit}/schedule": {
            "get": {"tags": ["units"], "summary": "Get schedule", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Unit ID", "name": "unit", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}},
            "post": {"tags": ["units"], "summary": "Replace schedule", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Unit ID", "name": "unit", "in": "path", "required": true},
                    {"description": "Schedule payload", "name": "schedule", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/units/{unit}/cameras/latest": {
            "get": {"tags": ["cameras"], "summary": "Latest camera grid", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Unit ID", "name": "unit", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UnitCameraGrid"}}}}
        },
        "/room/{room}/sensors": {
            "get": {"tags": ["rooms"], "summary": "Get room sensors", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "front or back", "name": "room", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RoomSensorReading"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/room/back/ac_schedule": {
            "get": {"tags": ["rooms"], "summary": "Get AC schedule", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/resources.acScheduleBody"}}}},
            "post": {"tags": ["rooms"], "summary": "Update AC schedule", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"description": "Hours to change", "name": "schedule", "in": "body", "required": true, "schema": {"$ref": "#/definitions/resources.acScheduleBody"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/resources.acScheduleBody"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/cameras/status": {
            "get": {"tags": ["cameras"], "summary": "Camera overview", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CameraSummary"}}}}
        },
        "/cameras/{unit}": {
            "get": {"tags": ["cameras"], "summary": "List unit cameras", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Unit ID", "name": "unit", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UnitCameras"}}}}
        },
        "/cameras/{camera}/images": {
            "get": {"tags": ["cameras"], "summary": "List camera images", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Camera ID, e.g. DWC1L23", "name": "camera", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum number of images (default 10)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CameraImages"}}}}
        },
        "/cameras/{camera}/upload": {
            "post": {"tags": ["cameras"], "summary": "Upload a camera image", "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Camera ID, e.g. DWC1L23", "name": "camera", "in": "path", "required": true},
                    {"type": "file", "description": "Image (png, jpg, jpeg, gif)", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UploadResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/camera_images/{filename}": {
            "get": {"tags": ["cameras"], "summary": "Get a stored image", "produces": ["image/jpeg"],
                "parameters": [{"type": "string", "description": "Stored file name", "name": "filename", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/export/sensors/csv": {
            "get": {"tags": ["export"], "summary": "Export sensor readings as CSV", "produces": ["text/csv"],
                "parameters": [
                    {"type": "string", "description": "Unit ID or ALL (default)", "name": "unit", "in": "query"},
                    {"type": "string", "description": "today, yesterday, last7days (default), last30days, thismonth, lastmonth, custom", "name": "range", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required for custom", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required for custom", "name": "endDate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/export/sensors/xlsx": {
            "get": {"tags": ["export"], "summary": "Export sensor readings as XLSX", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"type": "string", "description": "Unit ID or ALL (default)", "name": "unit", "in": "query"},
                    {"type": "string", "description": "Range name, see CSV export", "name": "range", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required for custom", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required for custom", "name": "endDate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        },
        "/export/images/zip": {
            "get": {"tags": ["export"], "summary": "Export camera images as ZIP", "produces": ["application/zip"],
                "parameters": [
                    {"type": "string", "description": "Unit ID or ALL (default)", "name": "unit", "in": "query"},
                    {"type": "string", "description": "Range name, see CSV export", "name": "range", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required for custom", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD, required for custom", "name": "endDate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }}
        }
    },
    "definitions": {
        "errors.APIError": {"type": "object", "properties": {
            "type": {"type": "string"}, "error": {"type": "string"}, "code": {"type": "integer"},
            "request_id": {"type": "string"}, "details": {}}},
        "models.Unit": {"type": "object", "properties": {
            "unit_id": {"type": "string"}, "name": {"type": "string"}, "type": {"type": "string"},
            "active": {"type": "boolean"}, "created_at": {"type": "integer"}}},
        "models.Reservoir": {"type": "object", "properties": {
            "ph": {"type": "number"}, "tds": {"type": "number"}, "turbidity": {"type": "number"},
            "water_temp": {"type": "number"}, "water_level": {"type": "number"}}},
        "models.ZoneClimate": {"type": "object", "properties": {"temp": {"type": "number"}, "humidity": {"type": "number"}}},
        "models.SensorReading": {"type": "object", "properties": {
            "unit_id": {"type": "string"}, "timestamp": {"type": "integer"},
            "reservoir": {"$ref": "#/definitions/models.Reservoir"},
            "climate": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.ZoneClimate"}}}},
        "models.Relays": {"type": "object", "properties": {
            "lights": {"type": "string", "enum": ["ON", "OFF", "AUTO"]},
            "fans": {"type": "string", "enum": ["ON", "OFF", "AUTO"]},
            "pump": {"type": "string", "enum": ["ON", "OFF", "AUTO"]}}},
        "models.RelayPatch": {"type": "object", "properties": {
            "lights": {"type": "string"}, "fans": {"type": "string"}, "pump": {"type": "string"}}},
        "models.RelayStatus": {"type": "object", "properties": {
            "unit_id": {"type": "string"}, "timestamp": {"type": "integer"},
            "relays": {"$ref": "#/definitions/models.Relays"}}},
        "models.BME": {"type": "object", "properties": {
            "temp": {"type": "number"}, "humidity": {"type": "number"}, "pressure": {"type": "number"}, "iaq": {"type": "number"}}},
        "models.ACState": {"type": "object", "properties": {
            "current_set_temp": {"type": "number"}, "mode": {"type": "string"}, "scheduled_temp": {"type": "number"}}},
        "models.RoomSensorReading": {"type": "object", "properties": {
            "unit_id": {"type": "string"}, "timestamp": {"type": "integer"},
            "bme": {"$ref": "#/definitions/models.BME"}, "co2": {"type": "number"},
            "ac": {"$ref": "#/definitions/models.ACState"}}},
        "resources.acScheduleBody": {"type": "object", "properties": {
            "ac_schedule": {"type": "object", "additionalProperties": {"type": "number"}}}},
        "models.CameraStatus": {"type": "object", "properties": {
            "camera_id": {"type": "string"}, "last_image_timestamp": {"type": "integer"},
            "total_images": {"type": "integer"}, "status": {"type": "string"}}},
        "models.UnitCameras": {"type": "object", "properties": {
            "unit_id": {"type": "string"},
            "cameras": {"type": "array", "items": {"$ref": "#/definitions/models.CameraStatus"}}}},
        "models.CameraImage": {"type": "object", "properties": {
            "id": {"type": "integer"}, "camera_id": {"type": "string"}, "timestamp": {"type": "integer"},
            "image_path": {"type": "string"}, "file_size": {"type": "integer"}, "url": {"type": "string"}}},
        "models.CameraImages": {"type": "object", "properties": {
            "camera_id": {"type": "string"},
            "images": {"type": "array", "items": {"$ref": "#/definitions/models.CameraImage"}}}},
        "models.GridCell": {"type": "object", "properties": {
            "camera_id": {"type": "string"}, "timestamp": {"type": "integer"}, "image_url": {"type": "string"}}},
        "models.UnitCameraGrid": {"type": "object", "properties": {
            "unit_id": {"type": "string"},
            "camera_grid": {"type": "object", "additionalProperties": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.GridCell"}}}}},
        "models.CameraSummary": {"type": "object", "properties": {
            "timestamp": {"type": "integer"}, "total_units": {"type": "integer"}, "total_cameras": {"type": "integer"},
            "units": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/models.CameraStatus"}}}}},
        "models.UploadResult": {"type": "object", "properties": {
            "message": {"type": "string"}, "camera_id": {"type": "string"},
            "timestamp": {"type": "integer"}, "image_url": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "hydrohub API",
	Description:      "Telemetry and control backend for a multi-unit hydroponics facility.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
