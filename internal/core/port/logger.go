package port

// Fields - структурированные данные для лога.
type Fields map[string]interface{}

// LoggerPort - контракт системы логирования.
// Ядро не знает, куда именно уходят записи.
type LoggerPort interface {
	// Info записывает информационное сообщение.
	Info(msg string, fields Fields)

	// Warn записывает предупреждение.
	Warn(msg string, fields Fields)

	// Error записывает ошибку вместе с объектом error.
	Error(msg string, err error, fields Fields)

	Debug(msg string, fields Fields)

	// WithFields создает логгер с уже добавленными полями (session_id, trace_id).
	WithFields(fields Fields) LoggerPort
}
