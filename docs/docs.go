// Package docs регистрирует описание OpenAPI для /docs.
// Обновляется командой swag init -g cmd/advileads/main.go.
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
        "/api/v1/billing/webhook": {
            "post": {
                "description": "Подпись проверяется по заголовку Stripe-Signature.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Billing"],
                "summary": "Webhook платежного провайдера",
                "parameters": [
                    {"type": "string", "description": "Подпись события", "name": "Stripe-Signature", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Неверная подпись или событие", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Ошибка обработки, провайдер повторит доставку", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/leads/access": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Доступ к платным разделам",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Пробный период истек", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Уведомления пользователя, новые первыми, и число непрочитанных.",
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Список уведомлений",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [
                        {"$ref": "#/definitions/response.Response"},
                        {"type": "object", "properties": {"data": {"$ref": "#/definitions/list.Page"}}}
                    ]}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Только для администраторов.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Отправить уведомление пользователю",
                "parameters": [
                    {"description": "Адресат и содержимое уведомления", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/create.Request"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"allOf": [
                        {"$ref": "#/definitions/response.Response"},
                        {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.Notification"}}}
                    ]}},
                    "400": {"description": "Некорректный JSON", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Недостаточно прав", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Удалить все уведомления",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/notifications/read-all": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Отметить все уведомления прочитанными",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/notifications/unread": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Число непрочитанных уведомлений",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/notifications/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Удаляет уведомление. Закрепленные уведомления (dismissible=false) удалить нельзя.",
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Скрыть уведомление",
                "parameters": [
                    {"type": "string", "description": "ID уведомления", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Уведомление закреплено", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Уведомление не найдено", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/notifications/{id}/read": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Notifications"],
                "summary": "Отметить уведомление прочитанным",
                "parameters": [
                    {"type": "string", "description": "ID уведомления", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Уведомление не найдено", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/session": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Создает или обновляет пользователя по JWT, сразу проверяет триал и запускает периодические проверки.",
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Начать сессию",
                "responses": {
                    "200": {"description": "Итог первой проверки", "schema": {"allOf": [
                        {"$ref": "#/definitions/response.Response"},
                        {"type": "object", "properties": {"data": {"$ref": "#/definitions/trialwatch.Result"}}}
                    ]}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Завершить сессию",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/trial": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Оставшиеся дни, прогресс, дата окончания и метка триала текущего пользователя.",
                "produces": ["application/json"],
                "tags": ["Trial"],
                "summary": "Состояние пробного периода",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [
                        {"$ref": "#/definitions/response.Response"},
                        {"type": "object", "properties": {"data": {"$ref": "#/definitions/status.View"}}}
                    ]}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Пользователь не найден", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Внутренняя ошибка сервера", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Проверка зависимостей",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Зависимость недоступна", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "create.Action": {
            "type": "object",
            "required": ["label", "url"],
            "properties": {
                "label": {"type": "string", "maxLength": 40},
                "url": {"type": "string"}
            }
        },
        "create.Request": {
            "type": "object",
            "required": ["message", "title", "type", "user_uid"],
            "properties": {
                "action": {"$ref": "#/definitions/create.Action"},
                "dismissible": {"type": "boolean"},
                "message": {"type": "string", "maxLength": 1000},
                "title": {"type": "string", "maxLength": 120},
                "type": {"type": "string", "enum": ["trial", "info", "warning", "success", "error"]},
                "user_uid": {"type": "string"}
            }
        },
        "list.Page": {
            "type": "object",
            "properties": {
                "notifications": {"type": "array", "items": {"$ref": "#/definitions/models.Notification"}},
                "unread_count": {"type": "integer"}
            }
        },
        "models.Action": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "models.Notification": {
            "type": "object",
            "properties": {
                "action": {"$ref": "#/definitions/models.Action"},
                "createdAt": {"type": "string"},
                "dismissible": {"type": "boolean"},
                "id": {"type": "string"},
                "message": {"type": "string"},
                "read": {"type": "boolean"},
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["trial", "info", "warning", "success", "error"]}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "status.View": {
            "type": "object",
            "properties": {
                "badge": {"$ref": "#/definitions/trial.Badge"},
                "days_left": {"type": "integer"},
                "formatted_end_date": {"type": "string"},
                "is_expired": {"type": "boolean"},
                "is_expiring_soon": {"type": "boolean"},
                "membership_status": {"type": "string", "enum": ["trial", "active", "expired"]},
                "progress": {"type": "number"},
                "restrict_access": {"type": "boolean"},
                "should_show_warning": {"type": "boolean"},
                "trial_day": {"type": "integer"},
                "trial_end_date": {"type": "string"}
            }
        },
        "trial.Badge": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "level": {"type": "string"}
            }
        },
        "trialwatch.Result": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["idle", "checking", "notified"]},
                "trial": {"type": "boolean"},
                "welcome": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo метаданные описания API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Advileads API",
	Description:      "Пробный период, уведомления и биллинг Advileads",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
