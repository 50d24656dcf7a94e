package store

import (
	"encoding/json"
	"fmt"
	"time"

	"plugsmith/internal/logging"
)

// ChatMessage is one entry of the append-only oracle transcript.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendChatMessage appends one transcript entry. The transcript is never
// mutated, only appended.
func (s *PluginStore) AppendChatMessage(role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`INSERT INTO chat_history (role, content) VALUES (?, ?)`,
		role, content); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	logging.StoreDebug("AppendChatMessage: role=%s len=%d", role, len(content))
	return nil
}

// GetChatHistory returns the transcript in insertion order.
func (s *PluginStore) GetChatHistory() ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT role, content, timestamp FROM chat_history ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var ts string
		if err := rows.Scan(&m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		m.Timestamp, _ = time.Parse("2006-01-02 15:04:05", ts)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat history: %w", err)
	}

	return msgs, nil
}

// HistoryJSON renders the transcript for embedding into prompts. Like the
// catalog, a failed read degrades to an empty history.
func (s *PluginStore) HistoryJSON() string {
	msgs, err := s.GetChatHistory()
	if err != nil {
		logging.Get(logging.CategoryStore).Error("HistoryJSON: degrading to empty history: %v", err)
		return "[]"
	}
	if len(msgs) == 0 {
		return "[]"
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("HistoryJSON: marshal failed: %v", err)
		return "[]"
	}
	return string(data)
}
