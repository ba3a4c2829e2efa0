package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"whatsapp-chat-analyzer/internal/domain"
)

// Имена листов итоговой книги отчета.
const (
	sheetMessageBreakdown  = "Message breakdown"
	sheetActivityBreakdown = "Activity breakdown"
	sheetQuestionOutcomes  = "Question outcomes"
)

// ExcelExporter собирает книгу Excel с межчатовым отчетом:
// по листу на каждую из трех разбивок.
type ExcelExporter struct{}

// NewExcelExporter создает новый экземпляр ExcelExporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// BuildWorkbook формирует книгу отчета. Закрытие книги остается за
// вызывающей стороной.
func (e *ExcelExporter) BuildWorkbook(report *domain.GroupReport) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}

	f := excelize.NewFile()

	if err := e.writeMessageBreakdown(f, report.MessageBreakdown); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := e.writeActivityBreakdown(f, report.ActivityBreakdown); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := e.writeQuestionOutcomes(f, report.QuestionOutcomes); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Лист по умолчанию больше не нужен.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	return f, nil
}

// SaveReport формирует книгу отчета и сохраняет ее по указанному пути.
func (e *ExcelExporter) SaveReport(report *domain.GroupReport, path string) error {
	f, err := e.BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}
	return nil
}

func (e *ExcelExporter) writeMessageBreakdown(f *excelize.File, rows []domain.MessageBreakdownRow) error {
	headers := []string{"Group", "Answered Questions", "Unanswered Questions", "Other Messages"}
	if err := newSheet(f, sheetMessageBreakdown, headers); err != nil {
		return err
	}

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetMessageBreakdown, fmt.Sprintf("A%d", r), row.Label)
		f.SetCellValue(sheetMessageBreakdown, fmt.Sprintf("B%d", r), row.AnsweredPct)
		f.SetCellValue(sheetMessageBreakdown, fmt.Sprintf("C%d", r), row.UnansweredPct)
		f.SetCellValue(sheetMessageBreakdown, fmt.Sprintf("D%d", r), row.OtherPct)
	}
	return nil
}

func (e *ExcelExporter) writeActivityBreakdown(f *excelize.File, rows []domain.ActivityBreakdownRow) error {
	headers := []string{"Group", "Replies", "Emojis", "No-Reply/Emoji Messages"}
	if err := newSheet(f, sheetActivityBreakdown, headers); err != nil {
		return err
	}

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetActivityBreakdown, fmt.Sprintf("A%d", r), row.Label)
		f.SetCellValue(sheetActivityBreakdown, fmt.Sprintf("B%d", r), row.RepliesPct)
		f.SetCellValue(sheetActivityBreakdown, fmt.Sprintf("C%d", r), row.EmojisPct)
		f.SetCellValue(sheetActivityBreakdown, fmt.Sprintf("D%d", r), row.PlainPct)
	}
	return nil
}

func (e *ExcelExporter) writeQuestionOutcomes(f *excelize.File, rows []domain.QuestionOutcomeRow) error {
	headers := []string{"Group", "Answered", "Unanswered"}
	if err := newSheet(f, sheetQuestionOutcomes, headers); err != nil {
		return err
	}

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetQuestionOutcomes, fmt.Sprintf("A%d", r), row.Label)
		f.SetCellValue(sheetQuestionOutcomes, fmt.Sprintf("B%d", r), row.AnsweredPct)
		f.SetCellValue(sheetQuestionOutcomes, fmt.Sprintf("C%d", r), row.UnansweredPct)
	}
	return nil
}

// newSheet создает лист и заполняет его строку заголовков.
func newSheet(f *excelize.File, name string, headers []string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, h)
	}
	return nil
}
