package persist

import (
	"encoding/json"
	"time"
)

// Execution is one dispatched prompt and its result.
type Execution struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	Provider     string         `json:"provider"`
	Model        string         `json:"model"`
	Params       map[string]any `json:"params,omitempty"`
	SystemPrompt string         `json:"system_prompt,omitempty"`
	UserPrompt   string         `json:"user_prompt"`
	Content      string         `json:"content"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Simulated    bool           `json:"simulated"`
	Error        string         `json:"error,omitempty"`
}

// Version is a named snapshot of generated content.
type Version struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ExecutionID string         `json:"execution_id,omitempty"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Feedback is a user rating of an execution.
type Feedback struct {
	ID          string    `json:"id"`
	ExecutionID string    `json:"execution_id"`
	Rating      int       `json:"rating"` // 1..5
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionMeta is the __metadata__ object of a saved session.
type SessionMeta struct {
	SavedAt string `json:"saved_at"`
	ID      string `json:"id"`
}

// SessionInfo describes a saved session file.
type SessionInfo struct {
	Name string      `json:"name"`
	Path string      `json:"path"`
	Meta SessionMeta `json:"metadata"`
}

// scanner interface for both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// toJSON converts an object to JSON string
func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// fromJSON parses JSON string into an object
func fromJSON(data string, v any) error {
	if data == "" || data == "{}" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
