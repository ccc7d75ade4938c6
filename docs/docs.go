// Package docs registers the OpenAPI document served under /swagger.
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
        "/": {"get": {"tags": ["dashboard"], "summary": "Dashboard page", "produces": ["text/html"], "responses": {"200": {"description": "OK"}}}},
        "/ws": {"get": {"tags": ["dashboard"], "summary": "Live board stream", "parameters": [
            {"type": "string", "description": "Patch flush interval, e.g. 200ms", "name": "interval", "in": "query"},
            {"type": "integer", "description": "Patch flush interval in ms", "name": "interval_ms", "in": "query"}
        ], "responses": {"101": {"description": "Switching Protocols"}}}},
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/water-tank-get-all": {"get": {"tags": ["dashboard"], "summary": "All tanks (legacy)", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Tank"}}}}}},
        "/water_tank_get_settings_json": {"get": {"tags": ["dashboard"], "summary": "Dashboard settings (legacy)", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/water-tank-get_mqtt_settings": {"get": {"tags": ["dashboard"], "summary": "Broker settings", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MQTTSettings"}}}}},
        "/water_plugin_download_sensor_log": {"get": {"tags": ["sensor-log"], "summary": "Download sensor log as CSV (legacy)", "produces": ["text/csv"], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/tanks": {
            "get": {"tags": ["tanks"], "summary": "List tanks", "produces": ["application/json"], "responses": {"200": {"description": "count, tanks"}}},
            "put": {"tags": ["tanks"], "summary": "Create or update tank", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [
                {"description": "Tank definition", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Tank"}}
            ], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Tank"}}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/tanks/{id}": {
            "get": {"tags": ["tanks"], "summary": "Get tank", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Tank"}}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["tanks"], "summary": "Delete tank", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/tanks/order": {"post": {"tags": ["tanks"], "summary": "Save display order", "consumes": ["application/json"], "parameters": [
            {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SaveOrderRequest"}}
        ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}},
        "/api/v1/tanks/publish": {"post": {"tags": ["tanks"], "summary": "Republish snapshot", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/settings": {
            "get": {"tags": ["settings"], "summary": "Get settings", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Settings"}}}},
            "put": {"tags": ["settings"], "summary": "Save settings", "consumes": ["application/json"], "parameters": [
                {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Settings"}}
            ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/settings/mqtt": {"get": {"tags": ["settings"], "summary": "Broker settings", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MQTTSettings"}}}}},
        "/api/v1/sensor-log": {
            "get": {"tags": ["sensor-log"], "summary": "List sensor log", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "count, entries"}, "400": {"description": "Bad Request"}}},
            "delete": {"tags": ["sensor-log"], "summary": "Clear sensor log", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/sensor-log/download": {"get": {"tags": ["sensor-log"], "summary": "Download sensor log", "parameters": [
            {"enum": ["csv", "xlsx", "pdf"], "type": "string", "name": "format", "in": "query"}
        ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}}
    },
    "definitions": {
        "handlers.SaveOrderRequest": {"type": "object", "required": ["ids"], "properties": {"ids": {"type": "array", "items": {"type": "string"}}}},
        "models.Settings": {"type": "object", "properties": {
            "max_sensor_no_signal_time": {"type": "integer"},
            "max_sensor_log_records": {"type": "integer"},
            "sensor_log_enabled": {"type": "boolean"}
        }},
        "models.MQTTSettings": {"type": "object", "properties": {
            "broker_host": {"type": "string"},
            "broker_port": {"type": "integer"},
            "mqtt_broker_ws_port": {"type": "integer"},
            "data_publish_mqtt_topic": {"type": "string"},
            "request_subscribe_mqtt_topic": {"type": "string"}
        }},
        "models.Tank": {"type": "object", "properties": {
            "id": {"type": "string"},
            "label": {"type": "string"},
            "percentage": {"type": "number"},
            "invalid_sensor_measurement": {"type": "boolean"},
            "last_updated": {"type": "string", "example": "2025-06-01 12:00:00"},
            "enabled": {"type": "boolean"},
            "critical_level": {"type": "number"},
            "warning_level": {"type": "number"},
            "overflow_level": {"type": "number"},
            "overflow_safe_level": {"type": "number"},
            "warning_safe_level": {"type": "number"},
            "critical_safe_level": {"type": "number"},
            "loss_alert": {"type": "boolean"},
            "state": {"type": "integer", "enum": [1, 2, 3, 4, 5, 6, 7], "readOnly": true},
            "type": {"type": "integer", "enum": [1, 2, 3, 4]},
            "order": {"type": "integer"},
            "sensor_id": {"type": "string"},
            "sensor_mqtt_topic": {"type": "string"},
            "sensor_measurement": {"type": "number"},
            "sensor_offset_from_top": {"type": "number"},
            "min_valid_sensor_measurement": {"type": "number"},
            "max_valid_sensor_measurement": {"type": "number"},
            "water_tank_units": {"type": "integer", "enum": [1, 2, 3, 4]},
            "sensor_units": {"type": "integer", "enum": [1, 2, 3, 4]},
            "width": {"type": "number"},
            "length": {"type": "number"},
            "height": {"type": "number"},
            "diameter": {"type": "number"},
            "horizontal_axis": {"type": "number"},
            "vertical_axis": {"type": "number"}
        }}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Water Tank API",
	Description:      "Tank definitions, sensor ingestion and the live tank dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
