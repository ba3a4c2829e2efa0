package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// ErrNothingToReport возвращается, когда ни по одному чату нет данных
// для межчатового отчета.
var ErrNothingToReport = errors.New("nothing to report")

// ReportService строит межчатовые процентные отчеты. Три разбивки
// намеренно используют разные знаменатели: их цифры закреплены за
// существующей статистикой, и сглаживать расхождения нельзя.
//
// MessageBreakdown делит на totalMessages + totalReactions — смешанную
// единицу (реакции не являются сообщениями, но входят в знаменатель).
// Остаток OtherPct вычисляется как 1 - answered - unanswered и может
// выходить за пределы [0, 1]. ActivityBreakdown делит на totalMessages,
// при этом сообщение одновременно может быть и ответом, и носителем
// реакций — корзины пересекаются, это известное наложение, а не ошибка.
// QuestionOutcomes делит только на число вопросов и единственный из трех
// гарантирует сумму долей, равную единице.
type ReportService struct {
	directory ports.ParticipantDirectory
	log       *slog.Logger
}

// ReportOption — функциональная опция для настройки ReportService.
type ReportOption func(*ReportService)

// WithReportLogger устанавливает логгер для сервиса.
func WithReportLogger(l *slog.Logger) ReportOption {
	return func(s *ReportService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewReportService создает новый ReportService с указанным справочником
// размеров групп.
func NewReportService(directory ports.ParticipantDirectory, opts ...ReportOption) *ReportService {
	s := &ReportService{
		directory: directory,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildReport собирает все три разбивки по переданным чатам. Чаты без
// таблицы вопросов (Stats.Records == nil) пропускаются в разбивках,
// которые от нее зависят, но остаются в разбивке по активности: для нее
// достаточно сырых итогов. Пустой вход — это ErrNothingToReport.
func (s *ReportService) BuildReport(stats []domain.ChatStats) (*domain.GroupReport, error) {
	if len(stats) == 0 {
		return nil, ErrNothingToReport
	}

	report := &domain.GroupReport{}

	for _, st := range stats {
		participants, label := s.labelFor(st.Name)

		report.ActivityBreakdown = append(report.ActivityBreakdown, domain.ActivityBreakdownRow{
			Chat:         st.Name,
			Label:        label,
			Participants: participants,
			RepliesPct:   ratio(st.Summary.TotalReplies, st.Summary.TotalMessages),
			EmojisPct:    ratio(st.Summary.TotalReactions, st.Summary.TotalMessages),
			PlainPct:     ratio(st.Summary.TotalMessages-st.Summary.TotalReplies, st.Summary.TotalMessages),
		})

		if st.Records == nil {
			s.log.Warn("question table missing for chat, skipped in question breakdowns", "chat", st.Name)
			continue
		}

		answered := 0
		for _, rec := range st.Records {
			if rec.Answered() {
				answered++
			}
		}
		totalQuestions := len(st.Records)

		denom := st.Summary.TotalMessages + st.Summary.TotalReactions
		row := domain.MessageBreakdownRow{
			Chat:         st.Name,
			Label:        label,
			Participants: participants,
		}
		if denom > 0 {
			row.AnsweredPct = float64(answered) / float64(denom)
			row.UnansweredPct = float64(totalQuestions-answered) / float64(denom)
			row.OtherPct = 1 - row.AnsweredPct - row.UnansweredPct
		}
		report.MessageBreakdown = append(report.MessageBreakdown, row)

		report.QuestionOutcomes = append(report.QuestionOutcomes, domain.QuestionOutcomeRow{
			Chat:          st.Name,
			Label:         label,
			Participants:  participants,
			AnsweredPct:   ratio(answered, totalQuestions),
			UnansweredPct: ratio(totalQuestions-answered, totalQuestions),
		})
	}

	if len(report.ActivityBreakdown) == 0 {
		return nil, ErrNothingToReport
	}

	sortBySize(report.MessageBreakdown, func(r domain.MessageBreakdownRow) int { return r.Participants })
	sortBySize(report.ActivityBreakdown, func(r domain.ActivityBreakdownRow) int { return r.Participants })
	sortBySize(report.QuestionOutcomes, func(r domain.QuestionOutcomeRow) int { return r.Participants })

	return report, nil
}

// labelFor возвращает размер группы из справочника и подпись строки отчета:
// имя группы с размером в скобках либо с явным знаком вопроса, если группа
// в справочнике не настроена. Отсутствие в справочнике — не ошибка.
func (s *ReportService) labelFor(name string) (int, string) {
	if s.directory != nil {
		if n, ok := s.directory.Lookup(name); ok {
			return n, fmt.Sprintf("%s (%d)", name, n)
		}
	}
	return domain.UnknownParticipants, fmt.Sprintf("%s (?)", name)
}

// ratio делит счетчики, определяя долю при нулевом знаменателе как 0.
func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// sortBySize устойчиво сортирует строки отчета по убыванию размера группы;
// группы с неизвестным размером оказываются в конце, сохраняя входной порядок.
func sortBySize[T any](rows []T, participants func(T) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := participants(rows[i]), participants(rows[j])
		if (pi == domain.UnknownParticipants) != (pj == domain.UnknownParticipants) {
			return pj == domain.UnknownParticipants
		}
		return pi > pj
	})
}
