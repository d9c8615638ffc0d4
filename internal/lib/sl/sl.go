// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — единообразно формировать структурированные поля лога
// (ошибки, имя операции, идентификатор пользователя).
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil-ошибки возвращается пустое значение, а не паника: fail-soft
// ветки (чтение уведомлений, проверка триала) логируют без проверки на nil.
//
// Пример:
//
//	log.Error("failed to read notifications", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("")}
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op возвращает атрибут с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// User возвращает атрибут с UID пользователя.
func User(uid string) slog.Attr {
	return slog.String("user_uid", uid)
}
