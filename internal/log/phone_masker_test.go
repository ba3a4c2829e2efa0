package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskPhones(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"Слитный международный номер",
			"sender +972501234567 asked",
			"sender +***masked-number*** asked",
		},
		{
			"Номер с пробелами",
			"call +972 50 123 4567 now",
			"call +***masked-number*** now",
		},
		{
			"Номер с дефисами",
			"+972-50-123-4567",
			"+***masked-number***",
		},
		{
			"Текст без номеров не меняется",
			"no numbers here, just ?",
			"no numbers here, just ?",
		},
		{
			"Короткая последовательность цифр не маскируется",
			"room +12 is open",
			"room +12 is open",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := maskPhones(tc.in); got != tc.want {
				t.Errorf("maskPhones(%q) = %q, ожидалось %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPhoneMaskerHandler(t *testing.T) {
	newLogger := func(buf *bytes.Buffer) *slog.Logger {
		return NewMaskedLogger(slog.NewJSONHandler(buf, nil))
	}

	t.Run("Маскируется сообщение лога", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf)

		logger.Info("message from +972501234567")

		if strings.Contains(buf.String(), "+972501234567") {
			t.Errorf("Номер утек в сообщение: %s", buf.String())
		}
		if !strings.Contains(buf.String(), "+***masked-number***") {
			t.Errorf("Маска отсутствует в сообщении: %s", buf.String())
		}
	})

	t.Run("Маскируются строковые атрибуты", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf)

		logger.Info("processing chat", slog.String("sender", "+972 50 123 4567"))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("Не удалось разобрать запись лога: %v", err)
		}
		if entry["sender"] != "+***masked-number***" {
			t.Errorf("Ожидался замаскированный атрибут, получено %v", entry["sender"])
		}
	})

	t.Run("Маскируются атрибуты из With", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf).With(slog.String("owner", "+972501234567"))

		logger.Info("hello")

		if strings.Contains(buf.String(), "+972501234567") {
			t.Errorf("Номер утек через With: %s", buf.String())
		}
	})

	t.Run("Маскируются ошибки в атрибутах", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf)

		logger.Error("failed", slog.Any("error", errors.New("user +972501234567 not found")))

		if strings.Contains(buf.String(), "+972501234567") {
			t.Errorf("Номер утек через ошибку: %s", buf.String())
		}
	})

	t.Run("Маскируются атрибуты внутри групп", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf)

		logger.Info("grouped", slog.Group("chat", slog.String("admin", "+972501234567")))

		if strings.Contains(buf.String(), "+972501234567") {
			t.Errorf("Номер утек через группу: %s", buf.String())
		}
	})
}
