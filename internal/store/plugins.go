package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"plugsmith/internal/logging"
)

// RequestRecord is one natural-language request a plugin has satisfied.
type RequestRecord struct {
	ID   int64  `json:"id"`
	Text string `json:"request"`
}

// CatalogPlugin is the catalog view handed to the oracle: everything it
// needs to judge whether an existing plugin covers a request.
type CatalogPlugin struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Requests    []RequestRecord `json:"requests"`
}

// PluginDetail is the execution view of a stored plugin.
type PluginDetail struct {
	ID           int64
	Code         string
	Dependencies []string
	LastRequest  string
}

// NewPlugin carries the fields of a not-yet-persisted plugin candidate.
type NewPlugin struct {
	Code         string
	Description  string
	Dependencies []string
}

// ListAllPlugins returns every stored plugin with its satisfied requests.
func (s *PluginStore) ListAllPlugins() ([]CatalogPlugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT p.id, p.code, p.description, r.id, r.request
		FROM plugins p
		LEFT JOIN user_requests r ON p.id = r.plugin_id
		ORDER BY p.id, r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plugins: %w", err)
	}
	defer rows.Close()

	var plugins []CatalogPlugin
	index := make(map[int64]int)

	for rows.Next() {
		var (
			id          int64
			code, desc  string
			requestID   sql.NullInt64
			requestText sql.NullString
		)
		if err := rows.Scan(&id, &code, &desc, &requestID, &requestText); err != nil {
			return nil, fmt.Errorf("failed to scan plugin row: %w", err)
		}

		pos, ok := index[id]
		if !ok {
			plugins = append(plugins, CatalogPlugin{ID: id, Code: code, Description: desc})
			pos = len(plugins) - 1
			index[id] = pos
		}
		if requestID.Valid {
			plugins[pos].Requests = append(plugins[pos].Requests, RequestRecord{
				ID:   requestID.Int64,
				Text: requestText.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plugin rows: %w", err)
	}

	logging.StoreDebug("ListAllPlugins: %d plugins", len(plugins))
	return plugins, nil
}

// CatalogJSON renders the full catalog for embedding into prompts. Read
// failures degrade to an empty catalog so a broken read never kills the
// turn; "{}" signals "no plugins available" to the oracle.
func (s *PluginStore) CatalogJSON() string {
	plugins, err := s.ListAllPlugins()
	if err != nil {
		logging.Get(logging.CategoryStore).Error("CatalogJSON: degrading to empty catalog: %v", err)
		return "{}"
	}
	if len(plugins) == 0 {
		return "{}"
	}

	data, err := json.MarshalIndent(plugins, "", "  ")
	if err != nil {
		logging.Get(logging.CategoryStore).Error("CatalogJSON: marshal failed: %v", err)
		return "{}"
	}
	return string(data)
}

// GetPlugin returns the stored plugin with its dependency names and the
// most recent request it satisfied. Returns ErrNotFound if absent.
func (s *PluginStore) GetPlugin(id int64) (*PluginDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	detail := &PluginDetail{ID: id}

	err := s.db.QueryRow(`SELECT code FROM plugins WHERE id = ?`, id).Scan(&detail.Code)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query plugin %d: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT name FROM dependencies WHERE plugin_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies for plugin %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		detail.Dependencies = append(detail.Dependencies, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dependencies: %w", err)
	}

	err = s.db.QueryRow(`
		SELECT request FROM user_requests
		WHERE plugin_id = ? ORDER BY id DESC LIMIT 1`, id).Scan(&detail.LastRequest)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query last request for plugin %d: %w", id, err)
	}

	return detail, nil
}

// CreatePlugin persists a new plugin together with its originating request
// and dependency rows in one transaction. Returns the new plugin id.
func (s *PluginStore) CreatePlugin(p NewPlugin, originatingRequest string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO plugins (code, description) VALUES (?, ?)`,
		p.Code, p.Description)
	if err != nil {
		return 0, fmt.Errorf("failed to insert plugin: %w", err)
	}
	pluginID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new plugin id: %w", err)
	}

	if _, err = tx.Exec(`INSERT INTO user_requests (plugin_id, request) VALUES (?, ?)`,
		pluginID, originatingRequest); err != nil {
		return 0, fmt.Errorf("failed to insert request: %w", err)
	}

	for _, dep := range p.Dependencies {
		if dep == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO dependencies (plugin_id, name) VALUES (?, ?)`,
			pluginID, dep); err != nil {
			return 0, fmt.Errorf("failed to insert dependency %q: %w", dep, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit plugin: %w", err)
	}

	logging.Store("CreatePlugin: plugin %d persisted with %d deps", pluginID, len(p.Dependencies))
	return pluginID, nil
}

// AttachRequestToPlugin records that an existing plugin satisfied another
// request. A duplicate (plugin, request) pair is a silent no-op. Returns
// the plugin id.
func (s *PluginStore) AttachRequestToPlugin(pluginID int64, request string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO user_requests (plugin_id, request) VALUES (?, ?)`,
		pluginID, request)
	if err != nil {
		return 0, fmt.Errorf("failed to attach request to plugin %d: %w", pluginID, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		logging.StoreDebug("AttachRequestToPlugin: request already recorded for plugin %d", pluginID)
	} else {
		logging.Store("AttachRequestToPlugin: new request recorded for plugin %d", pluginID)
	}
	return pluginID, nil
}

// UpdatePluginCode replaces a stored plugin's code in place. Identity is
// preserved; only the code field changes.
func (s *PluginStore) UpdatePluginCode(pluginID int64, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE plugins SET code = ? WHERE id = ?`, code, pluginID)
	if err != nil {
		return fmt.Errorf("failed to update plugin %d: %w", pluginID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	logging.Store("UpdatePluginCode: plugin %d code replaced", pluginID)
	return nil
}

// DeletePlugin removes a plugin; its request and dependency rows cascade.
func (s *PluginStore) DeletePlugin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM plugins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plugin %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	logging.Store("DeletePlugin: plugin %d removed", id)
	return nil
}
