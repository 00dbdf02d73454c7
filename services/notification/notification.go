package notification

import (
	"fmt"

	"attendance/models"

	"github.com/goccy/go-json"
	"github.com/olahol/melody"
)

const MessageTypeAttendance = "attendance"

type Service interface {
	SendMessage(message string) error
}

type MelodyService struct {
	m *melody.Melody
}

func NewMelodyService(m *melody.Melody) *MelodyService {
	return &MelodyService{m: m}
}

func (s *MelodyService) SendMessage(message string) error {
	if s.m == nil {
		return fmt.Errorf("melody instance is nil")
	}
	return s.m.Broadcast([]byte(message))
}

// NopService drops every message
type NopService struct{}

func (NopService) SendMessage(string) error { return nil }

// Message is the live feed payload sent to websocket subscribers
type Message struct {
	Type   string                   `json:"type"`
	Record *models.AttendanceRecord `json:"record"`
}

type MessageBuilder struct {
	record *models.AttendanceRecord
}

func NewMessageBuilder(record *models.AttendanceRecord) *MessageBuilder {
	return &MessageBuilder{record: record}
}

func (b *MessageBuilder) Build() (string, error) {
	data, err := json.Marshal(Message{Type: MessageTypeAttendance, Record: b.record})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
