package models

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	// DefaultTimezone is stored at signup and reported when a record has none.
	DefaultTimezone = "auto"
)

// EmptyTasks is the tasks document every new account starts with.
var EmptyTasks = json.RawMessage(`{}`)

// UserRecord is the stored account document. Tasks is opaque to the service.
type UserRecord struct {
	Username  string          `json:"username"`
	Name      string          `json:"name"`
	Password  string          `json:"-"`
	Tasks     json.RawMessage `json:"tasks"`
	Timezone  string          `json:"timezone"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// Profile is the public view of a UserRecord returned by login and lookups.
type Profile struct {
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Tasks    json.RawMessage `json:"tasks"`
	Timezone string          `json:"timezone"`
}

// Profile builds the public view, substituting defaults for missing tasks and timezone.
func (u UserRecord) Profile() Profile {
	return Profile{
		Username: u.Username,
		Name:     u.Name,
		Tasks:    TasksOrEmpty(u.Tasks),
		Timezone: TimezoneOrDefault(u.Timezone),
	}
}

// TasksOrEmpty returns {} for absent task documents and for the JSON
// falsy values null, false, 0 and "".
func TasksOrEmpty(tasks json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(tasks)
	if len(trimmed) == 0 || falsy(trimmed) {
		return cloneRaw(EmptyTasks)
	}
	return cloneRaw(trimmed)
}

func falsy(raw json.RawMessage) bool {
	switch raw[0] {
	case 'n', 'f', '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
	default:
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case string:
		return x == ""
	}
	return false
}

// TimezoneOrDefault returns DefaultTimezone when tz is empty.
func TimezoneOrDefault(tz string) string {
	if tz == "" {
		return DefaultTimezone
	}
	return tz
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
