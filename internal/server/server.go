package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/core/services"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/ports"
)

// ChatProcessor определяет интерфейс для варианта использования, который обрабатывает чаты.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, filePath, chatName string) (domain.ChatStats, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	cacheStore *cache.CacheStore
	processor  ChatProcessor
	reporter   ports.Reporter

	cleanupCancel context.CancelFunc
}

// New создает новый экземпляр Server
func New(cfg *config.Config, processor ChatProcessor, reporter ports.Reporter, taskStore *TaskStore, cacheStore *cache.CacheStore) (*Server, error) {
	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		// Конечная точка для запуска новой задачи анализа
		r.Post("/analyze", func(w http.ResponseWriter, r *http.Request) {
			// Разбор мультипарт-формы
			err := r.ParseMultipartForm(config.DefaultMaxUploadSizeMB << 20)
			if err != nil {
				http.Error(w, "failed to parse form", http.StatusBadRequest)
				return
			}

			file, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "failed to get file from form", http.StatusBadRequest)
				return
			}
			defer file.Close()

			// Имя чата — базовое имя загруженного файла без расширения.
			chatName := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
			if chatName == "" {
				chatName = "uploaded chat"
			}

			// Генерация уникального идентификатора задачи
			taskID := uuid.NewString()

			// Создание временного файла для хранения загруженных данных
			tempDir := os.TempDir()
			tempFilePath := filepath.Join(tempDir, fmt.Sprintf("chat_%s.json", taskID))

			out, err := os.Create(tempFilePath)
			if err != nil {
				http.Error(w, "failed to create temp file", http.StatusInternalServerError)
				return
			}
			defer out.Close()

			_, err = io.Copy(out, file)
			if err != nil {
				http.Error(w, "failed to store uploaded file", http.StatusInternalServerError)
				return
			}

			// Создание задачи в хранилище
			taskStore.CreateTask(taskID, 24*time.Hour) // TTL для записи о задаче

			// Запуск обработки в горутине
			go func() {
				// Обновление статуса до "в обработке"
				taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

				// Создание контекста для задачи с таймаутом из конфигурации.
				taskCtx := context.Background()
				if cfg.Processing.TaskTimeout > 0 {
					var cancel context.CancelFunc
					taskCtx, cancel = context.WithTimeout(context.Background(), cfg.Processing.TaskTimeout)
					defer cancel()
				}

				stats, err := processor.ProcessChat(taskCtx, tempFilePath, chatName)
				if err != nil {
					taskStore.UpdateTaskError(taskID, err.Error())
					// Очистка временного файла при ошибке
					os.Remove(tempFilePath)
					return
				}

				// Обновление задачи с результатом
				taskStore.UpdateTaskResult(taskID, stats)

				// Очистка временного файла при успехе
				os.Remove(tempFilePath)
			}()

			// Возврат идентификатора задачи
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"task_id": taskID})
		})

		// Конечная точка для проверки статуса задачи
		r.Get("/tasks/{taskID}", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "task not found", http.StatusNotFound)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"task_id":       task.ID,
				"status":        task.Status,
				"error_message": task.ErrorMessage,
			})
		})

		// Конечная точка для получения таблицы вопросов с пагинацией
		r.Get("/tasks/{taskID}/result", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "task not found", http.StatusNotFound)
				return
			}

			if task.Status != TaskStatusCompleted {
				http.Error(w, "task is not completed", http.StatusBadRequest)
				return
			}

			page := parsePositiveInt(r.URL.Query().Get("page"), 1)
			pageSize := parsePositiveInt(r.URL.Query().Get("page_size"), 50)

			// Нарезка данных результата в соответствии с пагинацией
			startIndex := (page - 1) * pageSize
			endIndex := startIndex + pageSize

			if startIndex >= len(task.Result) {
				startIndex = len(task.Result)
				endIndex = len(task.Result)
			}
			if endIndex > len(task.Result) {
				endIndex = len(task.Result)
			}

			paginatedData := task.Result[startIndex:endIndex]

			totalItems := len(task.Result)
			totalPages := (totalItems + pageSize - 1) / pageSize // Округление вверх

			response := ResultResponse{
				Pagination: Pagination{
					CurrentPage: page,
					PageSize:    pageSize,
					TotalItems:  totalItems,
					TotalPages:  totalPages,
				},
				Summary: task.Stats.Summary,
				Data:    paginatedData,
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(response)
		})

		// Конечная точка для получения процентного отчета по чату задачи
		r.Get("/tasks/{taskID}/report", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "task not found", http.StatusNotFound)
				return
			}

			if task.Status != TaskStatusCompleted || task.Stats == nil {
				http.Error(w, "task is not completed", http.StatusBadRequest)
				return
			}

			report, err := reporter.BuildReport([]domain.ChatStats{*task.Stats})
			if err != nil {
				if errors.Is(err, services.ErrNothingToReport) {
					http.Error(w, "nothing to report", http.StatusNotFound)
					return
				}
				http.Error(w, "failed to build report", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(report)
		})
	})

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  config.DefaultReadTimeout,
		WriteTimeout: config.DefaultWriteTimeout,
		IdleTimeout:  config.DefaultIdleTimeout,
	}

	s := &Server{
		HTTPServer: httpServer,
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		processor:  processor,
		reporter:   reporter,
	}

	// Тикеры очистки просроченных задач и элементов кеша живут до остановки
	// сервера; их контекст отменяется в Shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	s.cleanupCancel = cancel
	s.taskStore.StartCleanupTicker(ctx, config.DefaultCleanupInterval)
	s.cacheStore.StartCleanupTicker(ctx, config.DefaultCleanupInterval)

	return s, nil
}

// Pagination представляет метаданные пагинации ответа.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// ResultResponse представляет страницу таблицы вопросов с итогами чата.
type ResultResponse struct {
	Pagination Pagination                `json:"pagination"`
	Summary    domain.ChatSummary        `json:"summary"`
	Data       []domain.EngagementRecord `json:"data"`
}

// parsePositiveInt разбирает положительное целое из строки запроса,
// возвращая значение по умолчанию при пустом или некорректном входе.
func parsePositiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	return s.HTTPServer.Shutdown(ctx)
}
