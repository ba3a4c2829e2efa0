package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/ports"
)

// ProcessChatUseCase инкапсулирует бизнес-логику обработки одного файла
// экспорта чата: чтение, разбор, построение таблицы вопросов и сырых итогов.
type ProcessChatUseCase struct {
	cfg        *config.Config
	parser     ports.Parser
	analyzer   ports.Analyzer
	cacheStore *cache.CacheStore
}

// NewProcessChatUseCase создает новый экземпляр ProcessChatUseCase.
func NewProcessChatUseCase(
	cfg *config.Config,
	parser ports.Parser,
	analyzer ports.Analyzer,
	cacheStore *cache.CacheStore,
) *ProcessChatUseCase {
	return &ProcessChatUseCase{
		cfg:        cfg,
		parser:     parser,
		analyzer:   analyzer,
		cacheStore: cacheStore,
	}
}

// ProcessChat обрабатывает один файл экспорта и возвращает итоги по чату.
// Результат кешируется по хешу содержимого файла: повторная загрузка того же
// экспорта не анализируется заново.
func (uc *ProcessChatUseCase) ProcessChat(ctx context.Context, filePath, chatName string) (domain.ChatStats, error) {
	fileHash, err := cache.CalculateFileHash(filePath)
	if err != nil {
		return domain.ChatStats{}, fmt.Errorf("failed to hash file %s: %w", filePath, err)
	}

	// Имя чата участвует в ключе: один и тот же экспорт под другим именем
	// дает другие подписи строк.
	cacheKey := cache.CalculateHashFromString(fileHash + "|" + chatName)
	if cachedItem, found := uc.cacheStore.Get(cacheKey); found {
		slog.InfoContext(ctx, "cache hit for export", "chat", chatName, "hash", fileHash)
		return cachedItem.Data, nil
	}

	slog.InfoContext(ctx, "processing export", "path", filePath, "chat", chatName)

	ds := source.NewCliSource(filePath)
	data, err := ds.Fetch()
	if err != nil {
		return domain.ChatStats{}, fmt.Errorf("failed to fetch data from %s: %w", filePath, err)
	}

	chat, err := uc.parser.Parse(data)
	if err != nil {
		return domain.ChatStats{}, fmt.Errorf("failed to parse data from %s: %w", filePath, err)
	}
	slog.InfoContext(ctx, "parsed chat", "chat", chatName, "message_count", len(chat.Messages))

	records, err := uc.analyzer.AnalyzeChat(chat, chatName)
	if err != nil {
		return domain.ChatStats{}, fmt.Errorf("failed to analyze %s: %w", chatName, err)
	}

	stats := domain.ChatStats{
		Name:    chatName,
		Summary: uc.analyzer.Summarize(chat, chatName),
		Records: records,
	}

	ttl := uc.cfg.Processing.CacheTTL
	uc.cacheStore.Put(cacheKey, stats, ttl)
	slog.InfoContext(ctx, "processing finished", "chat", chatName, "questions", len(records), "ttl", ttl.String())

	return stats, nil
}
