package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-chat-analyzer/internal/adapters/parser"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/core/services"
	"whatsapp-chat-analyzer/internal/pkg/config"
)

const testExport = `{
	"name": "Hiking_family",
	"messages": [
		{"messageId": "1", "body": "Who is coming on Saturday?", "SenderName": "Dana", "serialNumber": 1},
		{"messageId": "2", "body": "Me!", "SenderName": "Omer", "replyTo": {"ref": "1"}},
		{"messageId": "3", "body": "See you", "SenderName": "Noa"}
	]
}`

func newTestUseCase(t *testing.T) (*ProcessChatUseCase, *cache.CacheStore) {
	t.Helper()

	cfg := &config.Config{
		Processing: config.Processing{CacheTTL: time.Minute},
	}
	analyzer, err := services.NewAnalysisService()
	require.NoError(t, err)

	cacheStore := cache.NewCacheStore()
	uc := NewProcessChatUseCase(cfg, parser.NewJsonParser(), analyzer, cacheStore)
	return uc, cacheStore
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessChat(t *testing.T) {
	t.Run("Полный цикл обработки экспорта", func(t *testing.T) {
		uc, _ := newTestUseCase(t)
		path := writeExport(t, testExport)

		stats, err := uc.ProcessChat(context.Background(), path, "Hiking_family")
		require.NoError(t, err)

		assert.Equal(t, "Hiking_family", stats.Name)
		assert.Equal(t, 3, stats.Summary.TotalMessages)
		assert.Equal(t, 1, stats.Summary.TotalQuestions)
		require.Len(t, stats.Records, 1)
		assert.Equal(t, 1, stats.Records[0].ReplyCount)
	})

	t.Run("Повторная обработка берется из кеша", func(t *testing.T) {
		uc, cacheStore := newTestUseCase(t)
		path := writeExport(t, testExport)

		first, err := uc.ProcessChat(context.Background(), path, "Hiking_family")
		require.NoError(t, err)

		// Ключ кеша строится из хеша файла и имени чата
		fileHash, err := cache.CalculateFileHash(path)
		require.NoError(t, err)
		_, found := cacheStore.Get(cache.CalculateHashFromString(fileHash + "|Hiking_family"))
		assert.True(t, found)

		second, err := uc.ProcessChat(context.Background(), path, "Hiking_family")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("Тот же файл под другим именем — другой ключ кеша", func(t *testing.T) {
		uc, _ := newTestUseCase(t)
		path := writeExport(t, testExport)

		asA, err := uc.ProcessChat(context.Background(), path, "chat a")
		require.NoError(t, err)
		asB, err := uc.ProcessChat(context.Background(), path, "chat b")
		require.NoError(t, err)

		assert.Equal(t, "chat a", asA.Records[0].Chat)
		assert.Equal(t, "chat b", asB.Records[0].Chat)
	})

	t.Run("Отсутствующий файл — ошибка", func(t *testing.T) {
		uc, _ := newTestUseCase(t)
		_, err := uc.ProcessChat(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "ghost")
		assert.Error(t, err)
	})

	t.Run("Некорректный JSON — ошибка", func(t *testing.T) {
		uc, _ := newTestUseCase(t)
		path := writeExport(t, `{broken`)
		_, err := uc.ProcessChat(context.Background(), path, "broken")
		assert.Error(t, err)
	})
}
