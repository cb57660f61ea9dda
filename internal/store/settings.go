package store

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// keyRules validates single-key updates.
var keyRules = map[string]string{
	KeySoloMode:      "oneof=true false",
	KeySoloInterval:  "number",
	KeyStartPage:     "oneof=AIChat TaskList",
	KeyHideCompleted: "oneof=true false",
}

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

// UpdateSetting validates value for a known key before storing it.
func (s *Store) UpdateSetting(key, value string) error {
	if key != KeyAPIKey {
		rule, ok := keyRules[key]
		if !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		if err := validate.Var(value, rule); err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
	}
	if key == KeySoloInterval {
		n, _ := strconv.Atoi(value)
		if err := validate.Var(n, "min=1"); err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
	}
	return s.SetSetting(key, value)
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

// LoadSettings reads the typed settings. Unparseable values fall back to
// their defaults.
func (s *Store) LoadSettings() (Settings, error) {
	all, err := s.GetAllSettings()
	if err != nil {
		return DefaultSettings(), err
	}
	out := DefaultSettings()
	for _, kv := range all {
		switch kv.Key {
		case KeyAPIKey:
			out.APIKey = kv.Value
		case KeySoloMode:
			out.SoloMode, _ = strconv.ParseBool(kv.Value)
		case KeySoloInterval:
			if n, err := strconv.Atoi(kv.Value); err == nil && n > 0 {
				out.SoloInterval = n
			}
		case KeyStartPage:
			if kv.Value == StartTaskList {
				out.StartPage = StartTaskList
			}
		case KeyHideCompleted:
			out.HideCompleted, _ = strconv.ParseBool(kv.Value)
		}
	}
	return out, nil
}

// SaveSettings validates and stores every field.
func (s *Store) SaveSettings(st Settings) error {
	if err := validate.Struct(st); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	pairs := []Setting{
		{KeyAPIKey, st.APIKey},
		{KeySoloMode, strconv.FormatBool(st.SoloMode)},
		{KeySoloInterval, strconv.Itoa(st.SoloInterval)},
		{KeyStartPage, st.StartPage},
		{KeyHideCompleted, strconv.FormatBool(st.HideCompleted)},
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, p := range pairs {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			p.Key, p.Value,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("save setting %q: %w", p.Key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) APIKey() string {
	v, err := s.GetSetting(KeyAPIKey)
	if err != nil {
		return ""
	}
	return v
}

// SetHideCompleted is saved on its own, outside the settings form.
func (s *Store) SetHideCompleted(hide bool) error {
	return s.SetSetting(KeyHideCompleted, strconv.FormatBool(hide))
}
