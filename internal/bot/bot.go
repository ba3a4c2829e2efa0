package bot

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"whatsapp-chat-analyzer/cmd/bot/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	startCommand = "start"
)

// Bot представляет собой основной объект Telegram-бота: аналитик присылает
// JSON-файл экспорта WhatsApp, бот возвращает таблицу вопросов и сводку.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          config.BotConfig
	serverClient *ServerClient
	taskStore    *TaskStore
	logger       *slog.Logger
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.BotConfig, serverClient *ServerClient, taskStore *TaskStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	return &Bot{
		api:          api,
		cfg:          cfg,
		serverClient: serverClient,
		taskStore:    taskStore,
		logger:       logger,
	}, nil
}

// Start запускает основной цикл обработки обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	// Ответ на любые другие сообщения
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Пожалуйста, отправьте мне JSON-файл с экспортом чата WhatsApp.")
	b.sendMessage(reply)
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCommand:
		replyText := "Добро пожаловать! Я бот для анализа вовлеченности в групповых чатах WhatsApp.\n\n" +
			"Отправьте мне один JSON-файл с экспортом чата, и я найду в нем вопросы, " +
			"посчитаю ответы и реакции на каждый и пришлю таблицу.\n\n" +
			"Пожалуйста, обратите внимание:\n" +
			"• Я принимаю только один файл за раз.\n" +
			"• Файлы не сохраняются на сервере и обрабатываются на лету."
		reply := tgbotapi.NewMessage(msg.Chat.ID, replyText)
		b.sendMessage(reply)
	default:
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Я не знаю такой команды.")
		b.sendMessage(reply)
	}
}

// handleDocument обрабатывает входящий документ (файл).
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	logger := b.logger.With(slog.Int64("chat_id", chatID))

	// 1. Проверяем, нет ли уже активной задачи.
	if _, ok := b.taskStore.Get(chatID); ok {
		logger.Warn("user tried to start a new task while another is active")
		reply := tgbotapi.NewMessage(chatID, "Пожалуйста, подождите завершения предыдущей задачи, прежде чем начинать новую.")
		b.sendMessage(reply)
		return
	}

	// 2. Скачиваем файл.
	fileURL, err := b.api.GetFileDirectURL(msg.Document.FileID)
	if err != nil {
		logger.Error("failed to get file direct url", slog.String("error", err.Error()))
		reply := tgbotapi.NewMessage(chatID, "Не удалось получить доступ к файлу. Попробуйте отправить его еще раз.")
		b.sendMessage(reply)
		return
	}

	resp, err := http.Get(fileURL)
	if err != nil {
		logger.Error("failed to download file", slog.String("error", err.Error()))
		reply := tgbotapi.NewMessage(chatID, "Не удалось скачать файл. Попробуйте отправить его еще раз.")
		b.sendMessage(reply)
		return
	}
	defer resp.Body.Close()

	// 3. Запускаем задачу на бэкенде.
	startResp, err := b.serverClient.StartTask(ctx, msg.Document.FileName, resp.Body)
	if err != nil {
		logger.Error("failed to start task on backend", slog.String("error", err.Error()))
		reply := tgbotapi.NewMessage(chatID, "Не удалось начать обработку файла на сервере. Пожалуйста, попробуйте позже.")
		b.sendMessage(reply)
		return
	}

	taskID := startResp.TaskID
	logger = logger.With(slog.String("task_id", taskID))
	logger.Info("task started on backend")

	// 4. Сохраняем task_id и запускаем опрос.
	b.taskStore.Set(chatID, taskID)
	go b.pollTaskStatus(context.Background(), chatID, taskID) // Используем новый контекст для фоновой задачи

	reply := tgbotapi.NewMessage(chatID, "✅ Файл получен и поставлен в очередь на анализ. Ожидайте результата.")
	b.sendMessage(reply)
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// pollTaskStatus асинхронно опрашивает статус задачи на бэкенд-сервере.
func (b *Bot) pollTaskStatus(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	defer b.taskStore.Delete(chatID) // Гарантированно удаляем задачу по завершении.

	ticker := time.NewTicker(time.Duration(b.cfg.PollingIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Warn("polling cancelled by context")
			return
		case <-ticker.C:
			logger.Debug("polling task status")
			status, err := b.serverClient.GetTaskStatus(ctx, taskID)
			if err != nil {
				logger.Error("failed to get task status", slog.String("error", err.Error()))
				continue
			}

			switch status.Status {
			case "completed":
				logger.Info("task completed")
				b.processCompletedTask(ctx, chatID, taskID)
				return // Завершаем опрос
			case "failed":
				logger.Warn("task failed", slog.String("reason", status.ErrorMessage))
				reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("Произошла ошибка при обработке файла: %s", status.ErrorMessage))
				b.sendMessage(reply)
				return // Завершаем опрос
			case "pending", "processing":
				logger.Debug("task is in progress", slog.String("status", status.Status))
				// Продолжаем опрос
			default:
				logger.Warn("unknown task status", slog.String("status", status.Status))
			}
		}
	}
}

// processCompletedTask обрабатывает успешно завершенную задачу.
func (b *Bot) processCompletedTask(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	logger.Info("fetching results for completed task")

	records, summary, err := b.fetchAllResults(ctx, taskID)
	if err != nil {
		logger.Error("failed to fetch all results", slog.String("error", err.Error()))
		reply := tgbotapi.NewMessage(chatID, "Не удалось получить результаты для выполненной задачи. Пожалуйста, попробуйте позже.")
		b.sendMessage(reply)
		return
	}

	logger.Info("successfully fetched all results", slog.Int("question_count", len(records)))

	if len(records) == 0 {
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"В чате не нашлось ни одного вопроса (всего сообщений: %d).", summary.TotalMessages))
		b.sendMessage(reply)
		return
	}

	b.sendMessage(tgbotapi.NewMessage(chatID, renderDigest(summary)))

	// Логика ветвления в зависимости от количества вопросов
	if len(records) >= b.cfg.ExcelThreshold {
		logger.Info("question count is over threshold, sending excel file")
		b.sendExcelResult(chatID, records)
	} else {
		logger.Info("question count is under threshold, sending text message")
		b.sendTextResult(chatID, records)
	}
}

// fetchAllResults собирает все страницы с результатами для данной задачи.
func (b *Bot) fetchAllResults(ctx context.Context, taskID string) ([]RecordDTO, SummaryDTO, error) {
	var allRecords []RecordDTO
	var summary SummaryDTO
	page := 1
	pageSize := 100 // Запрашиваем по 100, чтобы уменьшить количество запросов

	for {
		result, err := b.serverClient.GetTaskResult(ctx, taskID, page, pageSize)
		if err != nil {
			return nil, SummaryDTO{}, fmt.Errorf("failed to get task result page %d: %w", page, err)
		}

		allRecords = append(allRecords, result.Data...)
		summary = result.Summary

		if page >= result.Pagination.TotalPages {
			break // Все страницы собраны
		}
		page++
	}

	return allRecords, summary, nil
}

// renderDigest формирует короткую текстовую сводку по чату.
func renderDigest(summary SummaryDTO) string {
	unanswered := summary.TotalQuestions - summary.AnsweredQuestions
	return fmt.Sprintf(
		"Анализ завершен: %q\n"+
			"Сообщений: %d, реакций: %d, ответов: %d\n"+
			"Вопросов: %d, из них получили отклик: %d, остались без отклика: %d",
		summary.Chat,
		summary.TotalMessages, summary.TotalReactions, summary.TotalReplies,
		summary.TotalQuestions, summary.AnsweredQuestions, unanswered,
	)
}

func (b *Bot) sendExcelResult(chatID int64, records []RecordDTO) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			b.logger.Error("failed to close excel file", slog.String("error", err.Error()))
		}
	}()

	sheetName := "Вопросы"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)

	// Заголовки
	headers := []string{"Chat", "SerialNumber", "TimestampUTC", "LocalTime", "Sender", "QuestionText", "ReplyCount", "ReactionCount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	// Данные
	for i, rec := range records {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.Chat)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rec.SerialNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), rec.TimestampUTC)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), rec.LocalTime)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), rec.Sender)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), rec.QuestionText)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), rec.ReplyCount)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), rec.ReactionCount)
	}

	// Запись в буфер
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		b.logger.Error("failed to write excel to buffer", slog.String("error", err.Error()))
		b.sendMessage(tgbotapi.NewMessage(chatID, "Не удалось сгенерировать Excel-файл."))
		return
	}

	// Отправка файла
	fileName := fmt.Sprintf("chat_questions_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	fileBytes := tgbotapi.FileBytes{
		Name:  fileName,
		Bytes: buf.Bytes(),
	}

	msg := tgbotapi.NewDocument(chatID, fileBytes)
	msg.Caption = fmt.Sprintf("Найдено %d вопросов.", len(records))
	b.sendMessage(msg)
}

// sendTextResult форматирует и отправляет результат в виде текстового сообщения HTML.
func (b *Bot) sendTextResult(chatID int64, records []RecordDTO) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Найдено %d вопросов. Вот таблица:\n", len(records)))
	sb.WriteString("<pre><code>") // Используем HTML для надежного форматирования

	// Получаем ширину колонок из конфигурации
	senderColWidth := b.cfg.Render.Sender
	questionColWidth := b.cfg.Render.Question
	countColWidth := b.cfg.Render.Count

	// Формируем заголовок
	headerSender := "Sender"
	headerQuestion := "Question"
	headerReplies := "Re"
	headerReactions := "Em"

	sb.WriteString(fmt.Sprintf("| %s%s | %s%s | %s%s | %s%s |\n",
		headerSender, strings.Repeat(" ", senderColWidth-len(headerSender)),
		headerQuestion, strings.Repeat(" ", questionColWidth-len(headerQuestion)),
		headerReplies, strings.Repeat(" ", countColWidth-len(headerReplies)),
		headerReactions, strings.Repeat(" ", countColWidth-len(headerReactions)),
	))

	// Формируем разделитель
	sb.WriteString(fmt.Sprintf("|%s|%s|%s|%s|\n",
		strings.Repeat("-", senderColWidth+2),
		strings.Repeat("-", questionColWidth+2),
		strings.Repeat("-", countColWidth+2),
		strings.Repeat("-", countColWidth+2),
	))

	for _, rec := range records {
		// 1. Очищаем данные и убираем исходные переносы
		sender := html.EscapeString(strings.ToValidUTF8(rec.Sender, ""))
		sender = strings.ReplaceAll(sender, "\n", " ")
		question := html.EscapeString(strings.ToValidUTF8(rec.QuestionText, ""))
		question = strings.ReplaceAll(question, "\n", " ")

		// 2. Разбиваем строки на несколько с переносом слов
		senderLines := wrapString(sender, senderColWidth)
		questionLines := wrapString(question, questionColWidth)

		maxLines := len(senderLines)
		if len(questionLines) > maxLines {
			maxLines = len(questionLines)
		}

		// 3. Печатаем строки для текущего вопроса; счетчики только в первой
		for i := 0; i < maxLines; i++ {
			senderPart := ""
			if i < len(senderLines) {
				senderPart = senderLines[i]
			}

			questionPart := ""
			if i < len(questionLines) {
				questionPart = questionLines[i]
			}

			repliesPart := ""
			reactionsPart := ""
			if i == 0 {
				repliesPart = fmt.Sprintf("%d", rec.ReplyCount)
				reactionsPart = fmt.Sprintf("%d", rec.ReactionCount)
			}

			sb.WriteString(fmt.Sprintf("| %s%s | %s%s | %s%s | %s%s |\n",
				senderPart, generatePadding(senderPart, senderColWidth),
				questionPart, generatePadding(questionPart, questionColWidth),
				repliesPart, generatePadding(repliesPart, countColWidth),
				reactionsPart, generatePadding(reactionsPart, countColWidth),
			))
		}
	}
	sb.WriteString("</code></pre>")

	text := sb.String()
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML

	// Проверка на максимальную длину сообщения в Telegram (4096 символов)
	if len(text) > 4096 {
		b.logger.Warn("generated text is too long, sending as file", "length", len(text))
		b.sendResultAsTextFile(chatID, records)
		return
	}

	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error("failed to send text result", "error", err.Error())
	}
}

// generatePadding вычисляет отступ для строки до нужной ширины колонки.
func generatePadding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)
	if paddingNeeded > 0 {
		return strings.Repeat(" ", paddingNeeded)
	}
	return ""
}

// wrapString wraps a given string to a specified width using runewidth.
// It prioritizes wrapping on word boundaries (spaces). If a single word is
// longer than the width, it will be broken mid-word.
func wrapString(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	var lines []string
	words := strings.Fields(s)

	if len(words) == 0 { // Handles strings with only spaces or empty strings
		runes := []rune(s)
		for len(runes) > 0 {
			i := 0
			currentWidth := 0
			for i < len(runes) {
				runeWidth := runewidth.RuneWidth(runes[i])
				if currentWidth+runeWidth > width {
					break
				}
				currentWidth += runeWidth
				i++
			}
			lines = append(lines, string(runes[:i]))
			runes = runes[i:]
		}
		if len(lines) == 0 {
			return []string{""}
		}
		return lines
	}

	var currentLine strings.Builder
	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		// Handle words longer than the entire width
		if wordWidth > width {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}

			runes := []rune(word)
			for len(runes) > 0 {
				i := 0
				currentWidth := 0
				for i < len(runes) {
					runeWidth := runewidth.RuneWidth(runes[i])
					if currentWidth+runeWidth > width {
						break
					}
					currentWidth += runeWidth
					i++
				}
				lines = append(lines, string(runes[:i]))
				runes = runes[i:]
			}
			continue
		}

		// If the word doesn't fit on the current line, start a new one
		lineLen := runewidth.StringWidth(currentLine.String())
		if lineLen > 0 && lineLen+1+wordWidth > width {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
		}

		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return lines
}

// sendResultAsTextFile отправляет таблицу вопросов в виде текстового файла.
func (b *Bot) sendResultAsTextFile(chatID int64, records []RecordDTO) {
	var buf bytes.Buffer

	// Форматируем как CSV для простоты
	buf.WriteString("Sender,QuestionText,ReplyCount,ReactionCount\n")
	for _, rec := range records {
		buf.WriteString(fmt.Sprintf("\"%s\",\"%s\",%d,%d\n",
			strings.ReplaceAll(rec.Sender, "\"", "\"\""),
			strings.ReplaceAll(rec.QuestionText, "\"", "\"\""),
			rec.ReplyCount,
			rec.ReactionCount,
		))
	}

	fileName := fmt.Sprintf("chat_questions_%s.txt", time.Now().Format("2006-01-02_15-04-05"))
	fileBytes := tgbotapi.FileBytes{
		Name:  fileName,
		Bytes: buf.Bytes(),
	}

	msg := tgbotapi.NewDocument(chatID, fileBytes)
	msg.Caption = fmt.Sprintf("Найдено %d вопросов. Таблица слишком большая для одного сообщения, поэтому она прикреплена в виде файла.", len(records))
	b.sendMessage(msg)
}
