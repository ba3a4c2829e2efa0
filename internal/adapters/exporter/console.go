package exporter

import (
	"fmt"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// ConsoleExporter реализует интерфейс Exporter для вывода данных в консоль.
type ConsoleExporter struct{}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter() ports.Exporter {
	return &ConsoleExporter{}
}

// Export выводит итоговую таблицу вопросов в консоль.
func (e *ConsoleExporter) Export(records []domain.EngagementRecord) error {
	fmt.Println("--- Question Engagement ---")
	if len(records) == 0 {
		fmt.Println("No questions found.")
		return nil
	}

	for i, rec := range records {
		fmt.Printf("%d. [%s #%d] %s: %q | replies: %d, reactions: %d\n",
			i+1, rec.Chat, rec.SerialNumber, rec.Sender, rec.QuestionText, rec.ReplyCount, rec.ReactionCount)
	}
	return nil
}
