package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// ErrNoChatsProcessed — терминальная ошибка: ни один из переданных чатов
// не удалось обработать.
var ErrNoChatsProcessed = errors.New("no chats could be processed")

// BatchConfig хранит конфигурацию для BatchService.
type BatchConfig struct {
	// TotalTimeout — максимальная продолжительность обработки всего набора чатов.
	TotalTimeout time.Duration
	// PoolSize — количество одновременных воркеров анализа.
	PoolSize int
}

// BatchOption — функциональная опция для настройки BatchService.
type BatchOption func(*BatchService)

// WithTotalTimeout устанавливает общий таймаут обработки набора чатов.
func WithTotalTimeout(d time.Duration) BatchOption {
	return func(s *BatchService) {
		if d > 0 {
			s.config.TotalTimeout = d
		}
	}
}

// WithPoolSize устанавливает количество одновременных воркеров.
func WithPoolSize(n int) BatchOption {
	return func(s *BatchService) {
		if n > 0 {
			s.config.PoolSize = n
		}
	}
}

// WithBatchLogger устанавливает логгер для сервиса.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(s *BatchService) {
		if l != nil {
			s.log = l
		}
	}
}

// BatchService прогоняет набор экспортов через разбор и анализ пулом
// воркеров. Чаты независимы и не разделяют изменяемого состояния, поэтому
// обрабатываются параллельно без координации. Сервис не хранит состояние и
// безопасен для одновременного использования.
type BatchService struct {
	parser   ports.Parser
	analyzer ports.Analyzer
	config   BatchConfig
	log      *slog.Logger
}

// NewBatchService создает новый BatchService с использованием функциональных
// опций поверх конфигурации по умолчанию.
func NewBatchService(parser ports.Parser, analyzer ports.Analyzer, opts ...BatchOption) *BatchService {
	s := &BatchService{
		parser:   parser,
		analyzer: analyzer,
		config: BatchConfig{
			TotalTimeout: 10 * time.Minute,
			PoolSize:     1,
		},
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// batchTask — одна единица работы для воркера.
type batchTask struct {
	idx int
	src source.NamedSource
}

// batchResult — результат обработки одного чата.
type batchResult struct {
	idx   int
	stats domain.ChatStats
	err   error
}

// AnalyzeAll обрабатывает набор именованных экспортов и возвращает итоги по
// чатам в порядке входа. Сбой одного чата логируется и не прерывает прогон;
// ошибкой завершается только прогон, в котором не обработан ни один чат.
func (s *BatchService) AnalyzeAll(ctx context.Context, sources []source.NamedSource) ([]domain.ChatStats, error) {
	if len(sources) == 0 {
		return nil, ErrNoChatsProcessed
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.TotalTimeout)
	defer cancel()

	s.log.InfoContext(ctx, "Starting batch analysis",
		"chats", len(sources),
		"pool_size", s.config.PoolSize,
		"total_timeout", s.config.TotalTimeout,
	)

	tasks := make(chan batchTask, len(sources))
	results := make(chan batchResult, len(sources))
	var wg sync.WaitGroup

	for i := 0; i < s.config.PoolSize; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, tasks, results)
	}

	for i, src := range sources {
		tasks <- batchTask{idx: i, src: src}
	}
	close(tasks)

	wg.Wait()
	close(results)

	ordered := make([]*domain.ChatStats, len(sources))
	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			s.log.Warn("chat skipped", "chat", sources[res.idx].Name, "error", res.err.Error())
			continue
		}
		stats := res.stats
		ordered[res.idx] = &stats
	}

	collected := make([]domain.ChatStats, 0, len(sources))
	for _, st := range ordered {
		if st != nil {
			collected = append(collected, *st)
		}
	}

	if len(collected) == 0 {
		return nil, fmt.Errorf("%w: %d chats failed", ErrNoChatsProcessed, failed)
	}

	s.log.Info("Batch analysis finished", "processed", len(collected), "skipped", failed)
	return collected, nil
}

// worker обрабатывает чаты из канала задач по одному, пока канал не закрыт
// или контекст не отменен.
func (s *BatchService) worker(ctx context.Context, wg *sync.WaitGroup, tasks <-chan batchTask, results chan<- batchResult) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			stats, err := s.analyzeOne(task.src)
			results <- batchResult{idx: task.idx, stats: stats, err: err}
		}
	}
}

// analyzeOne прогоняет один экспорт через полный цикл: источник -> парсер ->
// таблица вопросов -> сырые итоги.
func (s *BatchService) analyzeOne(src source.NamedSource) (domain.ChatStats, error) {
	data, err := src.Source.Fetch()
	if err != nil {
		return domain.ChatStats{}, fmt.Errorf("failed to fetch %s: %w", src.Name, err)
	}

	chat, err := s.parser.Parse(data)
	if err != nil {
		return domain.ChatStats{}, fmt.Errorf("failed to parse %s: %w", src.Name, err)
	}

	records, err := s.analyzer.AnalyzeChat(chat, src.Name)
	if err != nil {
		return domain.ChatStats{}, fmt.Errorf("failed to analyze %s: %w", src.Name, err)
	}

	return domain.ChatStats{
		Name:    src.Name,
		Summary: s.analyzer.Summarize(chat, src.Name),
		Records: records,
	}, nil
}
