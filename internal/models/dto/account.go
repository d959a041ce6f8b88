package dto

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/hongminglow/tasks-be/internal/models"
)

type SignupRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TasksRequest is the body accepted by the /api/tasks PUT and DELETE routes.
// Tasks and Timezone stay nil when the field is absent; an explicit null
// arrives as the raw bytes "null" and still counts as supplied.
type TasksRequest struct {
	Username string          `json:"username"`
	Tasks    json.RawMessage `json:"tasks"`
	Timezone json.RawMessage `json:"timezone"`
}

// ErrTimezoneNotString is returned by TimezoneValue for non-string values.
var ErrTimezoneNotString = errors.New("timezone must be a string or null")

// TimezoneValue returns nil when timezone was not sent. An explicit null
// yields "", which reads back as the default timezone.
func (r TasksRequest) TimezoneValue() (*string, error) {
	if r.Timezone == nil {
		return nil, nil
	}
	raw := bytes.TrimSpace(r.Timezone)
	if bytes.Equal(raw, []byte("null")) {
		tz := ""
		return &tz, nil
	}
	var tz string
	if err := json.Unmarshal(raw, &tz); err != nil {
		return nil, ErrTimezoneNotString
	}
	return &tz, nil
}

// AccountResponse is returned by signup and login.
type AccountResponse struct {
	Success bool `json:"success"`
	models.Profile
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
