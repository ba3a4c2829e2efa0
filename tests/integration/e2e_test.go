package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/parser"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/core/services"
	"whatsapp-chat-analyzer/internal/groups"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/server"
	"whatsapp-chat-analyzer/internal/server/usecase"
)

// Сквозной сценарий через HTTP API: загрузка экспорта, опрос статуса,
// таблица вопросов и процентный отчет.
func TestEndToEndHTTP(t *testing.T) {
	cfg := &config.Config{
		Server:     config.Server{Host: "localhost", Port: 8080},
		Processing: config.Processing{CacheTTL: time.Minute},
	}

	analyzer, err := services.NewAnalysisService()
	if err != nil {
		t.Fatalf("Не удалось создать сервис анализа: %v", err)
	}

	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore()
	processor := usecase.NewProcessChatUseCase(cfg, parser.NewJsonParser(), analyzer, cacheStore)
	reporter := services.NewReportService(groups.NewDirectory())

	srv, err := server.New(cfg, processor, reporter, taskStore, cacheStore)
	if err != nil {
		t.Fatalf("Не удалось создать сервер: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	ts := httptest.NewServer(srv.HTTPServer.Handler)
	defer ts.Close()

	// 1. Загрузка экспорта
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fw, err := writer.CreateFormFile("file", "Hiking_family.json")
	if err != nil {
		t.Fatalf("Не удалось создать форму: %v", err)
	}
	if _, err := fw.Write([]byte(hikingExport)); err != nil {
		t.Fatalf("Не удалось записать файл в форму: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Не удалось закрыть форму: %v", err)
	}

	resp, err := http.Post(ts.URL+"/api/v1/analyze", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("Не удалось отправить запрос: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Ожидался статус 202, получено %d", resp.StatusCode)
	}

	var startResp map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&startResp); err != nil {
		t.Fatalf("Не удалось декодировать ответ: %v", err)
	}
	taskID := startResp["task_id"]
	if taskID == "" {
		t.Fatal("Идентификатор задачи не найден в ответе")
	}

	// 2. Опрос статуса до завершения
	deadline := time.Now().Add(3 * time.Second)
	status := ""
	for time.Now().Before(deadline) {
		statusResp, err := http.Get(ts.URL + "/api/v1/tasks/" + taskID)
		if err != nil {
			t.Fatalf("Не удалось опросить статус: %v", err)
		}
		var parsed map[string]interface{}
		if err := json.NewDecoder(statusResp.Body).Decode(&parsed); err != nil {
			t.Fatalf("Не удалось декодировать статус: %v", err)
		}
		statusResp.Body.Close()

		status, _ = parsed["status"].(string)
		if status == "completed" || status == "failed" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if status != "completed" {
		t.Fatalf("Ожидался статус 'completed', получено '%s'", status)
	}

	// 3. Таблица вопросов
	resultResp, err := http.Get(ts.URL + "/api/v1/tasks/" + taskID + "/result?page=1&page_size=10")
	if err != nil {
		t.Fatalf("Не удалось получить результат: %v", err)
	}
	defer resultResp.Body.Close()

	var result server.ResultResponse
	if err := json.NewDecoder(resultResp.Body).Decode(&result); err != nil {
		t.Fatalf("Не удалось декодировать результат: %v", err)
	}

	if result.Pagination.TotalItems != 2 {
		t.Errorf("Ожидалось 2 вопроса, получено %d", result.Pagination.TotalItems)
	}
	if result.Summary.TotalMessages != 4 {
		t.Errorf("Ожидалось 4 сообщения в итогах, получено %d", result.Summary.TotalMessages)
	}
	if len(result.Data) != 2 || result.Data[0].ReplyCount != 1 {
		t.Errorf("Неожиданная таблица вопросов: %+v", result.Data)
	}

	// 4. Процентный отчет по чату
	reportResp, err := http.Get(ts.URL + "/api/v1/tasks/" + taskID + "/report")
	if err != nil {
		t.Fatalf("Не удалось получить отчет: %v", err)
	}
	defer reportResp.Body.Close()

	if reportResp.StatusCode != http.StatusOK {
		t.Fatalf("Ожидался статус 200 для отчета, получено %d", reportResp.StatusCode)
	}

	var report struct {
		QuestionOutcomes []struct {
			Label       string  `json:"label"`
			AnsweredPct float64 `json:"answered_pct"`
		} `json:"question_outcomes"`
	}
	if err := json.NewDecoder(reportResp.Body).Decode(&report); err != nil {
		t.Fatalf("Не удалось декодировать отчет: %v", err)
	}
	if len(report.QuestionOutcomes) != 1 {
		t.Fatalf("Ожидалась 1 строка исходов, получено %d", len(report.QuestionOutcomes))
	}
	if report.QuestionOutcomes[0].Label != "Hiking_family (15)" {
		t.Errorf("Ожидалась подпись 'Hiking_family (15)', получено '%s'", report.QuestionOutcomes[0].Label)
	}
}
