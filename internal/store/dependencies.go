package store

import (
	"fmt"
)

// CountPluginsUsingDependency returns how many plugins still declare the
// named dependency.
func (s *PluginStore) CountPluginsUsingDependency(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM dependencies WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dependency %q: %w", name, err)
	}
	return count, nil
}

// ListAllDependencies returns every distinct dependency name declared by
// stored plugins.
func (s *PluginStore) ListAllDependencies() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT DISTINCT name FROM dependencies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan dependency name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteDependencyByName removes every dependency row for the named
// package, across all plugins. Used by cleanup once the package has been
// uninstalled.
func (s *PluginStore) DeleteDependencyByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM dependencies WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete dependency %q: %w", name, err)
	}
	return nil
}
