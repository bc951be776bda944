package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TranscriptChunk is one transcribed segment of audio. Offset is the
// caller-assigned position within the recording, not the arrival time.
type TranscriptChunk struct {
	Offset int64  `json:"offset"`
	Text   string `json:"text"`
}

type SearchRecord struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

type Summary struct {
	Overview    []string `json:"overview"`
	Actionables []string `json:"actionables"`
	Notes       string   `json:"notes"`
}

// Meeting is the aggregate root: one row per meeting, with the transcript and
// search history kept as JSON array columns so single-row updates can append
// to them atomically.
type Meeting struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MeetingID     string         `gorm:"uniqueIndex;not null" json:"meeting_id"`
	OwnerUID      string         `gorm:"index;not null" json:"owner_uid"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	CreatedAt     time.Time      `json:"created_at"`
	Transcript    datatypes.JSON `json:"transcript"`
	SearchHistory datatypes.JSON `json:"search_history"`
	Summary       datatypes.JSON `json:"summary"`
}

func (Meeting) TableName() string { return "meeting" }

// TranscriptChunks decodes the stored transcript column. The slice is in
// physical append order; call LogicalTranscript for the read-time view.
func (m *Meeting) TranscriptChunks() ([]TranscriptChunk, error) {
	if len(m.Transcript) == 0 {
		return []TranscriptChunk{}, nil
	}
	var chunks []TranscriptChunk
	if err := json.Unmarshal(m.Transcript, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (m *Meeting) SearchRecords() ([]SearchRecord, error) {
	if len(m.SearchHistory) == 0 {
		return []SearchRecord{}, nil
	}
	var records []SearchRecord
	if err := json.Unmarshal(m.SearchHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SummaryValue returns nil when no summary has been generated yet.
func (m *Meeting) SummaryValue() (*Summary, error) {
	if len(m.Summary) == 0 || string(m.Summary) == "null" {
		return nil, nil
	}
	var s Summary
	if err := json.Unmarshal(m.Summary, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
