package model

import (
	"encoding/json"
	"log"
	"time"
)

// AskRun is the audit row for one completed question batch.
// Results are stored as a JSON array of AnswerRecord.
type AskRun struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Document  string    `gorm:"size:512;not null" json:"document"`
	Model     string    `gorm:"size:128" json:"model"`
	Questions int       `gorm:"not null" json:"questions"`
	Degraded  int       `gorm:"not null" json:"degraded"`
	Results   string    `gorm:"type:longtext" json:"results_json"`
	CreatedAt time.Time `json:"created_at"`
}

// Records returns the decoded results; nil on parse error.
func (r *AskRun) Records() []AnswerRecord {
	if r.Results == "" {
		return nil
	}
	var out []AnswerRecord
	if err := json.Unmarshal([]byte(r.Results), &out); err != nil {
		log.Printf("decode results of run %s failed: %v", r.ID, err)
		return nil
	}
	return out
}

// SetRecords stores the results as JSON and refreshes the counters.
func (r *AskRun) SetRecords(records []AnswerRecord) {
	b, err := json.Marshal(records)
	if err != nil {
		log.Printf("encode results of run %s failed: %v", r.ID, err)
		b = []byte("[]")
	}
	r.Results = string(b)
	r.Questions = len(records)
	r.Degraded = 0
	for _, rec := range records {
		if rec.Error || !rec.Metadata.Success {
			r.Degraded++
		}
	}
}
