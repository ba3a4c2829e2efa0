package ports

import (
	"whatsapp-chat-analyzer/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных чата.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для парсинга данных экспорта.
type Parser interface {
	// Parse преобразует сырые данные в структурированную модель чата.
	Parse(data []byte) (*domain.ExportedChat, error)
}

// Analyzer определяет интерфейс построения таблицы вопросов одного чата.
type Analyzer interface {
	// AnalyzeChat возвращает по одной записи на каждый вопрос чата,
	// сохраняя исходный порядок сообщений.
	AnalyzeChat(chat *domain.ExportedChat, chatName string) ([]domain.EngagementRecord, error)
	// Summarize собирает сырые итоги чата для межчатовых отчетов.
	Summarize(chat *domain.ExportedChat, chatName string) domain.ChatSummary
}

// Reporter определяет интерфейс построения межчатовых процентных отчетов.
type Reporter interface {
	BuildReport(stats []domain.ChatStats) (*domain.GroupReport, error)
}

// ParticipantDirectory — справочник "имя группы -> количество участников".
// Справочник только для чтения на все время прогона.
type ParticipantDirectory interface {
	// Lookup возвращает размер группы и признак того, что группа известна.
	Lookup(name string) (int, bool)
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает итоговую таблицу вопросов и выводит ее.
	Export(records []domain.EngagementRecord) error
}
