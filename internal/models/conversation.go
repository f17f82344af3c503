package models

import "time"

// DefaultPersona is used when a request names no persona or an unknown one.
const DefaultPersona = "fullstack"

type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type Persona struct {
	Name         string           `json:"name"`
	SystemPrompt string           `json:"system_prompt"`
	Config       GenerationConfig `json:"config"`
}

type ChatRequest struct {
	Message string `json:"message"`
	Persona string `json:"persona,omitempty"`
}

type ChatResult struct {
	Assistant  string  `json:"assistant"`
	Importance float64 `json:"importance"`
	Summary    string  `json:"summary"`
	Persona    string  `json:"persona"`
}

// ConversationRecord is one persisted exchange. ID and Timestamp are
// assigned by the database on append.
type ConversationRecord struct {
	ID              int64     `json:"id"`
	RequestID       string    `json:"request_id"`
	Persona         string    `json:"persona"`
	UserInput       string    `json:"user_input"`
	AssistantOutput string    `json:"assistant_output"`
	ImportanceScore float64   `json:"importance_score"`
	Summary         string    `json:"summary"`
	Timestamp       time.Time `json:"timestamp"`
}
