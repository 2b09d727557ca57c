package db

import (
	"database/sql"
	"time"
)

type EventQueueStatus string

const (
	EventQueueStatusPending    EventQueueStatus = "pending"
	EventQueueStatusProcessing EventQueueStatus = "processing"
	EventQueueStatusSent       EventQueueStatus = "sent"
	EventQueueStatusFailed     EventQueueStatus = "failed"
	EventQueueStatusDeadLetter EventQueueStatus = "dead_letter"
)

type User struct {
	ID        int64
	Email     string
	FullName  string
	GoogleID  string
	IsNewUser bool
	CreatedAt time.Time
}

type EventQueue struct {
	ID           int64
	EventID      string
	EventType    string
	EventSource  string
	EventSubject sql.NullString
	EventData    []byte
	ContentType  string
	Status       EventQueueStatus
	RetryCount   int32
	LastError    sql.NullString
	ProcessingBy sql.NullString
	CreatedAt    time.Time
	SentAt       sql.NullTime
}
