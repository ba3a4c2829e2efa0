package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// JsonParser реализует интерфейс Parser для разбора JSON экспорта WhatsApp.
type JsonParser struct{}

// NewJsonParser создает новый экземпляр JsonParser.
func NewJsonParser() ports.Parser {
	return &JsonParser{}
}

// Parse преобразует срез байт с JSON в структуру ExportedChat.
// Принимаются обе формы экспорта: объект {"name": ..., "messages": [...]}
// и голый массив сообщений верхнего уровня.
func (p *JsonParser) Parse(data []byte) (*domain.ExportedChat, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("export is empty")
	}

	if trimmed[0] == '[' {
		var messages []domain.Message
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message array: %w", err)
		}
		return &domain.ExportedChat{Messages: messages}, nil
	}

	var chat domain.ExportedChat
	if err := json.Unmarshal(trimmed, &chat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return &chat, nil
}
