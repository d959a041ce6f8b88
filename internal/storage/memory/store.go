package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hongminglow/tasks-be/internal/models"
	"github.com/hongminglow/tasks-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps user records in process memory, in insertion order.
// It enforces no uniqueness, mirroring the Postgres schema.
type Store struct {
	mu    sync.RWMutex
	users []models.UserRecord
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) FindOne(ctx context.Context, filter storage.Filter) (models.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.UserRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if filter.Matches(u) {
			return copyRecord(u), nil
		}
	}
	return models.UserRecord{}, storage.ErrNotFound
}

func (s *Store) InsertOne(ctx context.Context, user models.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.users = append(s.users, copyRecord(user))
	s.mu.Unlock()
	return nil
}

func (s *Store) UpdateOne(ctx context.Context, filter storage.Filter, update storage.Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if !filter.Matches(s.users[i]) {
			continue
		}
		if update.Tasks != nil {
			s.users[i].Tasks = cloneRaw(update.Tasks)
		}
		if update.Timezone != nil {
			s.users[i].Timezone = *update.Timezone
		}
		at := update.UpdatedAt
		s.users[i].UpdatedAt = &at
		return nil
	}
	return nil
}

// Len reports how many records are stored, duplicates included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func copyRecord(u models.UserRecord) models.UserRecord {
	u.Tasks = cloneRaw(u.Tasks)
	if u.UpdatedAt != nil {
		at := *u.UpdatedAt
		u.UpdatedAt = &at
	}
	return u
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
