package port

import "context"

// KeyValueStorePort - долговременное хранилище настроек (пресеты, тема).
type KeyValueStorePort interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
