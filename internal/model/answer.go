package model

type Source struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Page    int    `json:"page,omitempty"`
}

// Answer is what the synthesizer produces for a single question.
type Answer struct {
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Sources    []Source       `json:"sources"`
	Metadata   AnswerMetadata `json:"metadata"`
}

type AnswerMetadata struct {
	Chunks           int      `json:"chunks"`
	ProcessingTimeMs int64    `json:"processingTime"`
	AppliedConcepts  []string `json:"appliedConcepts,omitempty"`
	Model            string   `json:"model,omitempty"`
	SessionID        string   `json:"documentId,omitempty"`
	DocumentPath     string   `json:"documentPath,omitempty"`
	TokensUsed       int      `json:"tokensUsed,omitempty"`
	RetryAttempts    int      `json:"retryAttempts"`
	Success          bool     `json:"success"`
	IsMock           bool     `json:"isMock,omitempty"`
	Error            string   `json:"error,omitempty"`
	Warning          string   `json:"warning,omitempty"`
	Reasoning        string   `json:"reasoning,omitempty"`
}

// AnswerRecord is returned to the caller, one per requested question.
type AnswerRecord struct {
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Sources    []Source       `json:"sources"`
	Error      bool           `json:"error,omitempty"`
	Metadata   AnswerMetadata `json:"metadata"`
}
