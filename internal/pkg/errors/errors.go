package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда вопрос, пользователь или иная запись не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (неверный пароль, токен).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда пользователь пытается действовать от чужого имени.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для некорректных входных данных
	// (пустой текст вопроса, слишком длинное имя пользователя и т.п.).
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния хранилища,
	// которые не решаются повтором (например, занятое имя пользователя).
	ErrConflict = errors.New("resource state conflict")
)

// IsClientError сообщает, что ошибка вызвана запросом клиента и повтор операции бессмысленен.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden)
}
