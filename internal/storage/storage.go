package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hongminglow/tasks-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// UserStore is the document store holding the users collection.
//
// When more than one record matches a filter, implementations act on the
// earliest inserted one. UpdateOne must not fail when nothing matches.
type UserStore interface {
	FindOne(ctx context.Context, filter Filter) (models.UserRecord, error)
	InsertOne(ctx context.Context, user models.UserRecord) error
	UpdateOne(ctx context.Context, filter Filter, update Update) error
}

// Filter is a field-equality predicate over user records.
type Filter struct {
	Username string
	// Password is compared only when MatchPassword is set.
	Password      string
	MatchPassword bool
}

// ByUsername matches records with the exact username.
func ByUsername(username string) Filter {
	return Filter{Username: username}
}

// ByCredentials matches records whose username and stored password both equal the inputs.
func ByCredentials(username, password string) Filter {
	return Filter{Username: username, Password: password, MatchPassword: true}
}

// Matches reports whether the record satisfies the filter.
func (f Filter) Matches(user models.UserRecord) bool {
	if user.Username != f.Username {
		return false
	}
	return !f.MatchPassword || user.Password == f.Password
}

// Update is the set of fields written by UpdateOne. Nil fields are left untouched.
type Update struct {
	Tasks     json.RawMessage
	Timezone  *string
	UpdatedAt time.Time
}
