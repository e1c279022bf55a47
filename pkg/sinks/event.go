package sinks

import "time"

// DeletionEvent is the payload delivered downstream after a successful delete.
type DeletionEvent struct {
	BaseID    string    `json:"base_id"`
	Table     string    `json:"table"`
	RecordIDs []string  `json:"record_ids"`
	DeletedAt time.Time `json:"deleted_at"`
}

// NewDeletionEvent constructs an event for the given base/table and record ids.
func NewDeletionEvent(baseID, table string, recordIDs []string) DeletionEvent {
	return DeletionEvent{
		BaseID:    baseID,
		Table:     table,
		RecordIDs: recordIDs,
		DeletedAt: time.Now().UTC(),
	}
}
