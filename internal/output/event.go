package output

import "time"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventRunStarted   EventName = "run_started"
	EventRefResolved  EventName = "reference_resolved"
	EventRefExpanded  EventName = "reference_expanded"
	EventRefFailed    EventName = "reference_failed"
	EventItemStarted  EventName = "item_started"
	EventItemSkipped  EventName = "item_skipped"
	EventItemFinished EventName = "item_finished"
	EventItemFailed   EventName = "item_failed"
	EventRunFinished  EventName = "run_finished"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	Reference string         `json:"reference,omitempty"`
	ItemID    string         `json:"item_id,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}
