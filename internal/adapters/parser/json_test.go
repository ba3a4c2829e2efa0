package parser

import (
	"testing"
)

func TestJsonParser(t *testing.T) {
	t.Run("NewJsonParser создает корректный экземпляр", func(t *testing.T) {
		parser := NewJsonParser()
		if parser == nil {
			t.Error("Ожидался экземпляр JsonParser, получен nil")
		}
	})

	t.Run("Разбор экспорта в форме объекта", func(t *testing.T) {
		parser := &JsonParser{}
		testData := `{
			"name": "Hiking_family",
			"messages": [
				{
					"messageId": "1",
					"body": "Who is coming on Saturday?",
					"datetime": "2023-01-15 10:00:00",
					"SenderName": "Dana",
					"serialNumber": 1,
					"reactions": [{"emoji": "👍", "count": 2}]
				},
				{
					"messageId": "2",
					"body": "Me!",
					"datetime": "2023-01-15 10:05:00",
					"SenderName": "Omer",
					"serialNumber": 2,
					"replyTo": {"ref": "1"}
				}
			]
		}`

		chat, err := parser.Parse([]byte(testData))
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		if chat.Name != "Hiking_family" {
			t.Errorf("Ожидалось имя 'Hiking_family', получено '%s'", chat.Name)
		}

		if len(chat.Messages) != 2 {
			t.Fatalf("Ожидалось 2 сообщения, получено %d", len(chat.Messages))
		}

		if chat.Messages[0].ID != "1" {
			t.Errorf("Ожидался ID первого сообщения '1', получено '%s'", chat.Messages[0].ID)
		}

		if chat.Messages[1].ReplyTo == nil || chat.Messages[1].ReplyTo.Ref != "1" {
			t.Errorf("Ожидалась ссылка ответа на '1', получено %+v", chat.Messages[1].ReplyTo)
		}

		if len(chat.Messages[0].Reactions) != 1 || chat.Messages[0].Reactions[0].Count != 2 {
			t.Errorf("Ожидалась одна реакция со счетчиком 2, получено %+v", chat.Messages[0].Reactions)
		}
	})

	t.Run("Разбор экспорта в форме голого массива", func(t *testing.T) {
		parser := &JsonParser{}
		testData := `[
			{"messageId": "1", "body": "hello", "SenderName": "Dana"},
			{"messageId": "2", "body": "anyone there?", "SenderName": "Omer"}
		]`

		chat, err := parser.Parse([]byte(testData))
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		if chat.Name != "" {
			t.Errorf("Ожидалось пустое имя чата, получено '%s'", chat.Name)
		}

		if len(chat.Messages) != 2 {
			t.Errorf("Ожидалось 2 сообщения, получено %d", len(chat.Messages))
		}
	})

	t.Run("Разбор некорректного JSON возвращает ошибку", func(t *testing.T) {
		parser := &JsonParser{}
		invalidData := `{"name": "Test Chat", "invalid_json":}`

		chat, err := parser.Parse([]byte(invalidData))
		if err == nil {
			t.Error("Ожидалась ошибка для некорректного JSON, получено nil")
		}

		if chat != nil {
			t.Error("Ожидался nil чат для некорректного JSON, получен чат")
		}
	})

	t.Run("Разбор пустого входа возвращает ошибку", func(t *testing.T) {
		parser := &JsonParser{}

		chat, err := parser.Parse([]byte("  \n "))
		if err == nil {
			t.Error("Ожидалась ошибка для пустого входа, получено nil")
		}

		if chat != nil {
			t.Error("Ожидался nil чат для пустого входа, получен чат")
		}
	})
}
