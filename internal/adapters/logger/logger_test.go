package logger_adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"moderation-console/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPost struct {
	tag  string
	data port.Fields
}

type fakeFluent struct {
	mu     sync.Mutex
	posts  []recordedPost
	closed bool
}

func (f *fakeFluent) Post(tag string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, recordedPost{tag: tag, data: message.(port.Fields)})
	return nil
}

func (f *fakeFluent) Close() error {
	f.closed = true
	return nil
}

func TestSlogAdapterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelDebug, IsJSON: true})

	logger.WithFields(port.Fields{"session_id": "s-1"}).
		Error("Failed to load page", errors.New("boom"), port.Fields{"page": 2})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "Failed to load page", record["msg"])
	assert.Equal(t, "s-1", record["session_id"])
	assert.Equal(t, float64(2), record["page"])
	assert.Equal(t, "boom", record["error"])
}

func TestSlogAdapterLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(SlogConfig{Writer: &buf, Level: slog.LevelWarn})
	logger.Info("hidden", nil)
	logger.Debug("hidden", nil)
	assert.Zero(t, buf.Len())

	logger.Warn("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestFluentAdapter(t *testing.T) {
	client := &fakeFluent{}
	adapter, err := NewFluentLoggerAdapter(client, slog.LevelInfo)
	require.NoError(t, err)

	adapter.Debug("skipped", nil)
	scoped := adapter.WithFields(port.Fields{"use_case": "BulkModeration"})
	scoped.Error("Bulk request failed", errors.New("503"), port.Fields{"ad_id": 7})

	require.Len(t, client.posts, 1)
	post := client.posts[0]
	assert.Equal(t, "error", post.tag)
	assert.Equal(t, "BulkModeration", post.data["use_case"])
	assert.Equal(t, 7, post.data["ad_id"])
	assert.Equal(t, "503", post.data["error"])
	assert.Equal(t, "Bulk request failed", post.data["message"])
	assert.NotEmpty(t, post.data["timestamp"])

	// поля родителя не изменились
	adapter.Info("plain", nil)
	require.Len(t, client.posts, 2)
	assert.NotContains(t, client.posts[1].data, "use_case")

	require.NoError(t, adapter.Close())
	assert.True(t, client.closed)

	_, err = NewFluentLoggerAdapter(nil, nil)
	assert.Error(t, err)
}

func TestMultiLogger(t *testing.T) {
	_, err := NewMultiloggerAdapter()
	require.Error(t, err)

	var a, b bytes.Buffer
	first := NewSlogAdapter(SlogConfig{Writer: &a})
	single, err := NewMultiloggerAdapter(first)
	require.NoError(t, err)
	assert.Same(t, first, single)

	multi, err := NewMultiloggerAdapter(first, NewSlogAdapter(SlogConfig{Writer: &b}))
	require.NoError(t, err)
	multi.WithFields(port.Fields{"k": "v"}).Info("both", nil)
	assert.Contains(t, a.String(), "k=v")
	assert.Contains(t, b.String(), "k=v")
}

func TestNewFluentClientRequiresTagPrefix(t *testing.T) {
	_, err := NewFluentClient(FluentConfig{Host: "127.0.0.1", Port: 24224})
	assert.ErrorContains(t, err, "tag prefix")
}
