package store

import (
	"fmt"
	"strconv"

	"github.com/sadopc/rotalog/internal/timesheet"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// BreakRules reads the configured auto-break policy, falling back to
// the seeded defaults (6 hours / 30 minutes) on missing or malformed
// values.
func (s *Store) BreakRules() timesheet.BreakRules {
	rules := timesheet.BreakRules{ThresholdHours: 6, MinutesIfOver: 30}
	if v, err := s.GetSetting("auto_break_threshold"); err == nil {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rules.ThresholdHours = f
		}
	}
	if v, err := s.GetSetting("auto_break_minutes"); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			rules.MinutesIfOver = n
		}
	}
	return rules
}
