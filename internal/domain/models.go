package domain

import (
	"bytes"
	"encoding/json"
)

// ExportedChat представляет корневую структуру файла экспорта WhatsApp.
type ExportedChat struct {
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

// Message представляет одно сообщение в чате.
type Message struct {
	ID           MessageID  `json:"messageId"`
	Body         string     `json:"body"`
	Datetime     string     `json:"datetime"`
	SenderName   string     `json:"SenderName"`
	ReplyTo      *ReplyRef  `json:"replyTo"`
	Reactions    []Reaction `json:"reactions"`
	SerialNumber int        `json:"serialNumber"`
}

// MessageID — идентификатор сообщения. В экспортах встречается и строкой,
// и числом; пустое значение означает отсутствие идентификатора.
type MessageID string

// UnmarshalJSON принимает строку или число; любая другая форма
// приравнивается к отсутствующему идентификатору.
func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*id = ""
			return nil
		}
		*id = MessageID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*id = ""
		return nil
	}
	*id = MessageID(n.String())
	return nil
}

// IsZero сообщает, отсутствует ли идентификатор.
func (id MessageID) IsZero() bool {
	return id == ""
}

// ReplyRef представляет ссылку на сообщение, на которое дан прямой ответ.
// Ожидаемая форма — объект {"ref": ...}, но встречаются и другие; любая
// непустая форма считается ответом, просто без адресата.
type ReplyRef struct {
	Ref MessageID `json:"ref"`
}

// UnmarshalJSON никогда не возвращает ошибку: искаженная форма replyTo
// трактуется как "ответ без адресата", а не как сбой разбора.
func (r *ReplyRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	type replyRef ReplyRef
	var parsed replyRef
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil
	}
	*r = ReplyRef(parsed)
	return nil
}

// Reaction представляет группу emoji-реакций на сообщении с количеством
// поставивших ее пользователей. Отсутствующий count означает 0.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// EngagementRecord — итоговая строка анализа по одному вопросу.
// Записи неизменяемы и создаются один раз за прогон.
type EngagementRecord struct {
	Chat          string `json:"chat"`
	SerialNumber  int    `json:"serial_number"`
	TimestampUTC  string `json:"timestamp_utc"`
	LocalTime     string `json:"local_time"`
	Sender        string `json:"sender"`
	QuestionText  string `json:"question_text"`
	ReplyCount    int    `json:"reply_count"`
	ReactionCount int    `json:"reaction_count"`

	// AnswerCount — внешний, уже вычисленный сигнал ответов. Движок его не
	// производит, а лишь учитывает при определении отвеченных вопросов.
	AnswerCount int `json:"answer_count"`
}

// Answered сообщает, получил ли вопрос хоть какой-то отклик:
// внешний ответ, прямой ответ или реакцию.
func (r EngagementRecord) Answered() bool {
	return r.AnswerCount+r.ReplyCount+r.ReactionCount > 0
}

// ChatSummary — сырые итоги одного чата для межчатовых отчетов.
// TotalReactions суммируется по всем сообщениям, не только по вопросам;
// TotalReplies считает сообщения с непустым replyTo, включая висячие ссылки.
type ChatSummary struct {
	Chat              string `json:"chat"`
	TotalMessages     int    `json:"total_messages"`
	TotalReactions    int    `json:"total_reactions"`
	TotalReplies      int    `json:"total_replies"`
	TotalQuestions    int    `json:"total_questions"`
	AnsweredQuestions int    `json:"answered_questions"`
}

// ChatStats объединяет результаты анализа одного чата для построения
// межчатового отчета. Records == nil означает, что таблица вопросов для
// чата отсутствует (в отличие от пустой таблицы).
type ChatStats struct {
	Name    string
	Summary ChatSummary
	Records []EngagementRecord
}

// UnknownParticipants — значение поля Participants для групп,
// отсутствующих в справочнике размеров.
const UnknownParticipants = -1

// MessageBreakdownRow — строка разбивки "отвеченные вопросы /
// неотвеченные вопросы / прочие сообщения" по одной группе.
type MessageBreakdownRow struct {
	Chat          string  `json:"chat"`
	Label         string  `json:"label"`
	Participants  int     `json:"participants"`
	AnsweredPct   float64 `json:"answered_pct"`
	UnansweredPct float64 `json:"unanswered_pct"`
	OtherPct      float64 `json:"other_pct"`
}

// ActivityBreakdownRow — строка разбивки "ответы / реакции / обычные
// сообщения" по одной группе.
type ActivityBreakdownRow struct {
	Chat         string  `json:"chat"`
	Label        string  `json:"label"`
	Participants int     `json:"participants"`
	RepliesPct   float64 `json:"replies_pct"`
	EmojisPct    float64 `json:"emojis_pct"`
	PlainPct     float64 `json:"plain_pct"`
}

// QuestionOutcomeRow — строка разбивки "отвеченные / неотвеченные"
// только среди вопросов группы.
type QuestionOutcomeRow struct {
	Chat          string  `json:"chat"`
	Label         string  `json:"label"`
	Participants  int     `json:"participants"`
	AnsweredPct   float64 `json:"answered_pct"`
	UnansweredPct float64 `json:"unanswered_pct"`
}

// GroupReport — итоговый межчатовый отчет: по одной таблице на каждую из
// трех разбивок, строки отсортированы по убыванию размера группы.
type GroupReport struct {
	MessageBreakdown  []MessageBreakdownRow  `json:"message_breakdown"`
	ActivityBreakdown []ActivityBreakdownRow `json:"activity_breakdown"`
	QuestionOutcomes  []QuestionOutcomeRow   `json:"question_outcomes"`
}
