package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"whatsapp-chat-analyzer/internal/domain"
)

// csvHeader — порядок колонок пер-чатовых и сводной таблиц.
var csvHeader = []string{
	"Chat", "SerialNumber", "TimestampUTC", "LocalTime",
	"Sender", "QuestionText", "ReplyCount", "ReactionCount",
}

// combinedFileName — имя сводной таблицы по всем чатам.
const combinedFileName = "all_chats_questions.csv"

// utf8BOM пишется в начало каждого файла, чтобы Excel распознавал UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// invalidFilenameChars — символы, запрещенные в именах файлов Windows.
var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename заменяет запрещенные в именах файлов символы на
// подчеркивание.
func SanitizeFilename(name string) string {
	return invalidFilenameChars.ReplaceAllString(name, "_")
}

// CSVExporter пишет таблицы вопросов в CSV-файлы каталога вывода.
// Сбой записи одного чата не прерывает прогон: файл пропускается,
// остальные чаты выгружаются дальше.
type CSVExporter struct {
	outputDir string
	log       *slog.Logger
}

// NewCSVExporter создает новый экземпляр CSVExporter, при необходимости
// создавая каталог вывода.
func NewCSVExporter(outputDir string, log *slog.Logger) (*CSVExporter, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", outputDir, err)
	}
	return &CSVExporter{outputDir: outputDir, log: log}, nil
}

// ExportChat пишет таблицу вопросов одного чата в файл
// "<имя>_questions.csv". Чат без вопросов файла не получает: пустая
// таблица отличима от отсутствующего чата, и писать ей нечего.
func (e *CSVExporter) ExportChat(chatName string, records []domain.EngagementRecord) error {
	if len(records) == 0 {
		e.log.Info("no questions in chat, file not written", "chat", chatName)
		return nil
	}

	fileName := fmt.Sprintf("%s_questions.csv", SanitizeFilename(chatName))
	path := filepath.Join(e.outputDir, fileName)

	if err := e.writeFile(path, records); err != nil {
		if os.IsPermission(err) {
			// Недоступный файл пропускается, прогон продолжается.
			e.log.Warn("permission denied, skipped writing file", "path", path)
			return nil
		}
		return err
	}

	e.log.Info("wrote question table", "chat", chatName, "rows", len(records), "path", path)
	return nil
}

// Export пишет сводную таблицу по всем чатам.
func (e *CSVExporter) Export(records []domain.EngagementRecord) error {
	if len(records) == 0 {
		return nil
	}

	path := filepath.Join(e.outputDir, combinedFileName)
	if err := e.writeFile(path, records); err != nil {
		if os.IsPermission(err) {
			e.log.Warn("permission denied, skipped writing combined file", "path", path)
			return nil
		}
		return err
	}

	e.log.Info("wrote combined question table", "rows", len(records), "path", path)
	return nil
}

// writeFile пишет BOM, заголовок и строки таблицы в указанный файл.
func (e *CSVExporter) writeFile(path string, records []domain.EngagementRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM to %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}

	for _, rec := range records {
		row := []string{
			rec.Chat,
			strconv.Itoa(rec.SerialNumber),
			rec.TimestampUTC,
			rec.LocalTime,
			rec.Sender,
			rec.QuestionText,
			strconv.Itoa(rec.ReplyCount),
			strconv.Itoa(rec.ReactionCount),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}
