package postgres

import (
	"context"
	"sync"

	"github.com/hongminglow/tasks-be/internal/models"
	"github.com/hongminglow/tasks-be/internal/storage"
)

var _ storage.UserStore = (*LazyStore)(nil)

// LazyStore defers connecting until the first store call and then reuses
// the same pool for the life of the process. A failed connect is not
// remembered; the next call tries again.
type LazyStore struct {
	databaseURL string
	connect     func(ctx context.Context, databaseURL string) (*Store, error)

	mu    sync.Mutex
	store *Store
}

// NewLazyStore returns a handle that connects to databaseURL on first use.
func NewLazyStore(databaseURL string) *LazyStore {
	return &LazyStore{databaseURL: databaseURL, connect: NewUserStore}
}

func (l *LazyStore) get(ctx context.Context) (*Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}
	s, err := l.connect(ctx, l.databaseURL)
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

func (l *LazyStore) FindOne(ctx context.Context, filter storage.Filter) (models.UserRecord, error) {
	s, err := l.get(ctx)
	if err != nil {
		return models.UserRecord{}, err
	}
	return s.FindOne(ctx, filter)
}

func (l *LazyStore) InsertOne(ctx context.Context, user models.UserRecord) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.InsertOne(ctx, user)
}

func (l *LazyStore) UpdateOne(ctx context.Context, filter storage.Filter, update storage.Update) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.UpdateOne(ctx, filter, update)
}

// Connected reports whether the pool has been established.
func (l *LazyStore) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store != nil
}

// Close releases the pool if one was opened.
func (l *LazyStore) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		l.store.Close()
		l.store = nil
	}
}
