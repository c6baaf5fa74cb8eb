package port

// HistoryPort - история навигации, в которой живет строка запроса списка.
// Значения - закодированные query string без ведущего "?".
type HistoryPort interface {
	Current() string
	// Push добавляет новую запись; записи "вперед" отбрасываются.
	Push(query string)
	// Replace заменяет текущую запись, не создавая новой.
	Replace(query string)
	Back() (string, bool)
	Forward() (string, bool)
}
