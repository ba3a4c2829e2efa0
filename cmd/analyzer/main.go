package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/adapters/parser"
	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/core/services"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/groups"
	applog "whatsapp-chat-analyzer/internal/log"
)

const reportFileName = "group_report.xlsx"

func main() {
	if err := run(); err != nil {
		slog.Error("analyzer run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует пакетный сценарий: каталог экспортов на входе,
// CSV-таблицы вопросов и книга сводного отчета на выходе.
func run() error {
	var (
		inputDir   string
		outputDir  string
		groupsFile string
		timeZone   string
		poolSize   int
		timeout    time.Duration
		printOut   bool
		verbose    bool
	)
	flag.StringVar(&inputDir, "input", ".", "Directory with WhatsApp export JSON files")
	flag.StringVar(&outputDir, "output", "./output", "Directory for CSV tables and the report workbook")
	flag.StringVar(&groupsFile, "groups", "", "Optional YAML file with group sizes")
	flag.StringVar(&timeZone, "tz", services.DefaultTimeZone, "Time zone for local timestamps")
	flag.IntVar(&poolSize, "pool", 4, "Number of concurrent analysis workers")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Total timeout for the whole batch")
	flag.BoolVar(&printOut, "print", false, "Print question tables to stdout as well")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := applog.NewMaskedLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Поиск файлов экспорта
	sources, err := source.DiscoverExports(inputDir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		logger.Info("no export files found", "dir", inputDir)
		return nil
	}
	logger.Info("found export files", "count", len(sources), "dir", inputDir)

	// 2. Анализ всех чатов пулом воркеров
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", timeZone, err)
	}
	analyzer, err := services.NewAnalysisService(
		services.WithLocation(loc),
		services.WithAnalysisLogger(logger.With(slog.String("component", "analyzer"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}

	batch := services.NewBatchService(parser.NewJsonParser(), analyzer,
		services.WithPoolSize(poolSize),
		services.WithTotalTimeout(timeout),
		services.WithBatchLogger(logger.With(slog.String("component", "batch"))),
	)

	stats, err := batch.AnalyzeAll(ctx, sources)
	if err != nil {
		if errors.Is(err, services.ErrNoChatsProcessed) {
			logger.Warn("nothing to analyze", "error", err.Error())
			return nil
		}
		return err
	}

	// 3. Выгрузка CSV-таблиц вопросов
	csvExporter, err := exporter.NewCSVExporter(outputDir, logger.With(slog.String("component", "csv")))
	if err != nil {
		return err
	}

	var combined []domain.EngagementRecord
	for _, st := range stats {
		if st.Records == nil {
			continue
		}
		if err := csvExporter.ExportChat(st.Name, st.Records); err != nil {
			logger.Warn("failed to export chat table", "chat", st.Name, "error", err.Error())
			continue
		}
		combined = append(combined, st.Records...)
	}
	if printOut {
		console := exporter.NewConsoleExporter()
		if err := console.Export(combined); err != nil {
			logger.Warn("failed to print question table", "error", err.Error())
		}
	}
	if err := csvExporter.Export(combined); err != nil {
		logger.Warn("failed to export combined table", "error", err.Error())
	}

	// 4. Сводный отчет по трем разбивкам
	var directory *groups.Directory
	if groupsFile != "" {
		directory, err = groups.LoadDirectory(groupsFile)
		if err != nil {
			return fmt.Errorf("failed to load groups file: %w", err)
		}
	} else {
		directory = groups.NewDirectory()
	}

	reporter := services.NewReportService(directory,
		services.WithReportLogger(logger.With(slog.String("component", "reporter"))),
	)
	report, err := reporter.BuildReport(stats)
	if err != nil {
		if errors.Is(err, services.ErrNothingToReport) {
			logger.Info("nothing to report")
			return nil
		}
		return err
	}

	reportPath := filepath.Join(outputDir, reportFileName)
	if err := exporter.NewExcelExporter().SaveReport(report, reportPath); err != nil {
		return err
	}
	logger.Info("report saved", "path", reportPath, "chats", len(stats))

	return nil
}
