package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-chat-analyzer/internal/domain"
)

func testStats(name string) domain.ChatStats {
	return domain.ChatStats{
		Name:    name,
		Summary: domain.ChatSummary{Chat: name, TotalMessages: 3, TotalQuestions: 1},
		Records: []domain.EngagementRecord{
			{Chat: name, QuestionText: "anyone?", ReplyCount: 1},
		},
	}
}

func TestCacheStore(t *testing.T) {
	t.Run("Создание нового хранилища кэша", func(t *testing.T) {
		cs := NewCacheStore()
		assert.NotNil(t, cs)
		assert.NotNil(t, cs.cache)
	})

	t.Run("Запись и чтение из кэша", func(t *testing.T) {
		cs := NewCacheStore()
		key := "test_key"
		data := testStats("BC club")
		ttl := 1 * time.Minute

		cs.Put(key, data, ttl)

		item, found := cs.Get(key)
		require.True(t, found)
		require.NotNil(t, item)
		assert.Equal(t, data, item.Data)
		assert.WithinDuration(t, time.Now().Add(ttl), item.ExpiresAt, 1*time.Second)
	})

	t.Run("Чтение несуществующего ключа", func(t *testing.T) {
		cs := NewCacheStore()
		_, found := cs.Get("non_existent_key")
		assert.False(t, found)
	})

	t.Run("Чтение просроченного ключа", func(t *testing.T) {
		cs := NewCacheStore()
		key := "expired_key"
		ttl := -1 * time.Second // Просрочено в прошлом

		cs.Put(key, testStats("old"), ttl)

		_, found := cs.Get(key)
		assert.False(t, found)
	})

	t.Run("CleanupExpired удаляет только просроченные элементы", func(t *testing.T) {
		cs := NewCacheStore()
		cs.Put("fresh", testStats("fresh"), time.Minute)
		cs.Put("stale", testStats("stale"), -time.Second)

		cs.CleanupExpired()

		_, found := cs.Get("fresh")
		assert.True(t, found)

		cs.mutex.RLock()
		_, exists := cs.cache["stale"]
		cs.mutex.RUnlock()
		assert.False(t, exists)
	})

	t.Run("Тикер очистки останавливается по контексту", func(t *testing.T) {
		cs := NewCacheStore()
		ctx, cancel := context.WithCancel(context.Background())
		cs.StartCleanupTicker(ctx, 10*time.Millisecond)
		cancel()
		// Достаточно того, что остановка не паникует и не блокирует
		time.Sleep(30 * time.Millisecond)
	})
}

func TestCalculateFileHash(t *testing.T) {
	t.Run("Одинаковое содержимое дает одинаковый хеш", func(t *testing.T) {
		dir := t.TempDir()
		pathA := filepath.Join(dir, "a.json")
		pathB := filepath.Join(dir, "b.json")
		require.NoError(t, os.WriteFile(pathA, []byte(`{"x":1}`), 0o644))
		require.NoError(t, os.WriteFile(pathB, []byte(`{"x":1}`), 0o644))

		hashA, err := CalculateFileHash(pathA)
		require.NoError(t, err)
		hashB, err := CalculateFileHash(pathB)
		require.NoError(t, err)

		assert.Equal(t, hashA, hashB)
		assert.Len(t, hashA, 64)
	})

	t.Run("Отсутствующий файл — ошибка", func(t *testing.T) {
		_, err := CalculateFileHash(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}

func TestCalculateHashFromString(t *testing.T) {
	h1 := CalculateHashFromString("hash|chat a")
	h2 := CalculateHashFromString("hash|chat b")

	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h1, CalculateHashFromString("hash|chat a"))
}
