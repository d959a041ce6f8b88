package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/tasks-be/internal/models"
	"github.com/hongminglow/tasks-be/internal/storage"
	"github.com/hongminglow/tasks-be/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

// Store persists user records in a Postgres table with a JSONB tasks column.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore connects to Postgres and applies pending migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// FindOne returns the earliest inserted record matching the filter.
func (s *Store) FindOne(ctx context.Context, filter storage.Filter) (models.UserRecord, error) {
	where, args := whereClause(filter, 1)
	query := `
	SELECT username, name, password, tasks, timezone, created_at, updated_at
	FROM users
	WHERE ` + where + `
	ORDER BY id
	LIMIT 1;
	`
	row := s.pool.QueryRow(ctx, query, args...)
	return scanUser(row)
}

// InsertOne adds a record. Duplicate usernames are not rejected here.
func (s *Store) InsertOne(ctx context.Context, user models.UserRecord) error {
	const query = `
		INSERT INTO users (username, name, password, tasks, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
		`
	tasks := user.Tasks
	if tasks == nil {
		tasks = models.EmptyTasks
	}
	_, err := s.pool.Exec(ctx, query,
		user.Username,
		user.Name,
		user.Password,
		[]byte(tasks),
		models.TimezoneOrDefault(user.Timezone),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateOne sets the supplied fields on the earliest matching record.
// Matching nothing is not an error.
func (s *Store) UpdateOne(ctx context.Context, filter storage.Filter, update storage.Update) error {
	sets, args := setClause(update)
	where, whereArgs := whereClause(filter, len(args)+1)
	args = append(args, whereArgs...)

	query := `
	UPDATE users SET ` + sets + `
	WHERE id = (
		SELECT id FROM users
		WHERE ` + where + `
		ORDER BY id
		LIMIT 1
	);
	`
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func whereClause(filter storage.Filter, first int) (string, []any) {
	clauses := []string{fmt.Sprintf("username = $%d", first)}
	args := []any{filter.Username}
	if filter.MatchPassword {
		clauses = append(clauses, fmt.Sprintf("password = $%d", first+1))
		args = append(args, filter.Password)
	}
	return strings.Join(clauses, " AND "), args
}

func setClause(update storage.Update) (string, []any) {
	var (
		sets []string
		args []any
	)
	if update.Tasks != nil {
		args = append(args, []byte(update.Tasks))
		sets = append(sets, fmt.Sprintf("tasks = $%d", len(args)))
	}
	if update.Timezone != nil {
		args = append(args, *update.Timezone)
		sets = append(sets, fmt.Sprintf("timezone = $%d", len(args)))
	}
	args = append(args, update.UpdatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	return strings.Join(sets, ", "), args
}

func scanUser(row pgx.Row) (models.UserRecord, error) {
	var (
		user  models.UserRecord
		tasks []byte
	)
	if err := row.Scan(&user.Username, &user.Name, &user.Password, &tasks, &user.Timezone, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserRecord{}, storage.ErrNotFound
		}
		return models.UserRecord{}, fmt.Errorf("scan user: %w", err)
	}
	user.Tasks = tasks
	return user, nil
}
