package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"whatsapp-chat-analyzer/internal/domain"
)

// DefaultTimeZone — часовой пояс человекочитаемой колонки LocalTime.
const DefaultTimeZone = "Asia/Jerusalem"

// timestampLayout — формат обеих временных колонок итоговой таблицы.
const timestampLayout = "2006-01-02 15:04:05"

// datetimeLayouts — формы, в которых экспорты записывают метку времени.
// Метка всегда трактуется как UTC.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// AnalysisService строит таблицу вовлеченности по вопросам одного чата.
// Сервис не хранит состояние и безопасен для одновременного использования.
type AnalysisService struct {
	location *time.Location
	log      *slog.Logger
}

// AnalysisOption — функциональная опция для настройки AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithLocation устанавливает часовой пояс для колонки LocalTime.
func WithLocation(loc *time.Location) AnalysisOption {
	return func(s *AnalysisService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithAnalysisLogger устанавливает логгер для сервиса.
func WithAnalysisLogger(l *slog.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewAnalysisService создает новый AnalysisService. Без опции WithLocation
// используется часовой пояс DefaultTimeZone.
func NewAnalysisService(opts ...AnalysisOption) (*AnalysisService, error) {
	s := &AnalysisService{
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.location == nil {
		loc, err := time.LoadLocation(DefaultTimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to load time zone %s: %w", DefaultTimeZone, err)
		}
		s.location = loc
	}

	return s, nil
}

// BuildReplyIndex строит обратный индекс: идентификатор сообщения -> список
// сообщений, являющихся прямыми ответами на него. Индекс строится за один
// проход вместо повторного сканирования списка на каждый вопрос.
// Сообщения без идентификатора не могут быть целью ответа; ссылка на
// отсутствующий идентификатор не попадает ни в один список.
func BuildReplyIndex(messages []domain.Message) map[domain.MessageID][]domain.Message {
	known := make(map[domain.MessageID]struct{}, len(messages))
	for _, msg := range messages {
		if !msg.ID.IsZero() {
			known[msg.ID] = struct{}{}
		}
	}

	index := make(map[domain.MessageID][]domain.Message)
	for _, msg := range messages {
		if msg.ReplyTo == nil || msg.ReplyTo.Ref.IsZero() {
			continue
		}
		if _, ok := known[msg.ReplyTo.Ref]; !ok {
			// Висячая ссылка: сообщение остается валидным для сырых итогов,
			// но ответом ни на что не считается.
			continue
		}
		index[msg.ReplyTo.Ref] = append(index[msg.ReplyTo.Ref], msg)
	}

	return index
}

// IsQuestion сообщает, считается ли сообщение вопросом: в тексте есть хотя бы
// один символ '?'. Эвристика сознательно грубая: без разбора естественного
// языка, без нормализации Unicode и без минимальной длины, поэтому точность
// ограничена (риторика и "?!" тоже проходят).
func IsQuestion(msg domain.Message) bool {
	return strings.Contains(msg.Body, "?")
}

// CountReplies возвращает количество прямых ответов на сообщение по
// обратному индексу. Сообщение без идентификатора ответов иметь не может.
func CountReplies(msg domain.Message, index map[domain.MessageID][]domain.Message) int {
	if msg.ID.IsZero() {
		return 0
	}
	return len(index[msg.ID])
}

// CountReactions суммирует счетчики всех групп реакций сообщения.
// Отсутствующий счетчик дает 0; отрицательные значения не учитываются.
func CountReactions(msg domain.Message) int {
	total := 0
	for _, r := range msg.Reactions {
		if r.Count > 0 {
			total += r.Count
		}
	}
	return total
}

// AnalyzeChat возвращает по одной записи на каждый вопрос чата, сохраняя
// исходный порядок сообщений. Чат без вопросов дает пустую таблицу, а не
// ошибку; ошибка возможна только для отсутствующего чата.
func (s *AnalysisService) AnalyzeChat(chat *domain.ExportedChat, chatName string) ([]domain.EngagementRecord, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat is nil")
	}
	if chatName == "" {
		chatName = chat.Name
	}

	index := BuildReplyIndex(chat.Messages)

	records := make([]domain.EngagementRecord, 0)
	for _, msg := range chat.Messages {
		if !IsQuestion(msg) {
			continue
		}

		utc, local := s.renderTimestamps(msg.Datetime)
		records = append(records, domain.EngagementRecord{
			Chat:          chatName,
			SerialNumber:  msg.SerialNumber,
			TimestampUTC:  utc,
			LocalTime:     local,
			Sender:        msg.SenderName,
			QuestionText:  msg.Body,
			ReplyCount:    CountReplies(msg, index),
			ReactionCount: CountReactions(msg),
		})
	}

	return records, nil
}

// Summarize собирает сырые итоги чата для межчатовых отчетов.
// Отвеченность здесь оценивается только по ответам и реакциям: внешний
// сигнал AnswerCount на этом этапе еще недоступен и учитывается позже,
// при построении отчета.
func (s *AnalysisService) Summarize(chat *domain.ExportedChat, chatName string) domain.ChatSummary {
	summary := domain.ChatSummary{Chat: chatName}
	if chat == nil {
		return summary
	}
	if summary.Chat == "" {
		summary.Chat = chat.Name
	}

	index := BuildReplyIndex(chat.Messages)

	summary.TotalMessages = len(chat.Messages)
	for _, msg := range chat.Messages {
		summary.TotalReactions += CountReactions(msg)
		if msg.ReplyTo != nil {
			summary.TotalReplies++
		}
		if IsQuestion(msg) {
			summary.TotalQuestions++
			if CountReplies(msg, index)+CountReactions(msg) > 0 {
				summary.AnsweredQuestions++
			}
		}
	}

	return summary
}

// renderTimestamps разбирает метку времени экспорта как UTC и возвращает ее
// в формате таблицы дважды: как UTC и в часовом поясе сервиса. Неразборчивая
// метка сохраняется как есть, локальное время при этом остается пустым.
func (s *AnalysisService) renderTimestamps(raw string) (utc, local string) {
	raw = strings.TrimSpace(raw)
	for _, layout := range datetimeLayouts {
		ts, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		ts = ts.UTC()
		return ts.Format(timestampLayout), ts.In(s.location).Format(timestampLayout)
	}

	if raw != "" {
		s.log.Debug("unparseable message timestamp", "value", raw)
	}
	return raw, ""
}
