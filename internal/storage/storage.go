package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is the bot's relational store. Queries are written with ? placeholders
// and rebound for the driver in use.
type DB struct{ *sqlx.DB }

func New(driver, dsn string) (*DB, error) {
	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sqlx.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ---------- chats -----------------------------------------------------------

func (d *DB) UpsertChat(ctx context.Context, c models.Chat) error {
	if c.UpdatedAt == 0 {
		c.UpdatedAt = time.Now().Unix()
	}
	_, err := d.NamedExecContext(ctx, `
        INSERT INTO chats (chat_id, type, title, status, updated_at)
        VALUES (:chat_id, :type, :title, :status, :updated_at)
        ON CONFLICT(chat_id) DO UPDATE SET type=excluded.type,
            title=excluded.title,
            status=excluded.status,
            updated_at=excluded.updated_at`, c)
	if err != nil {
		return fmt.Errorf("upsert chat %d: %w", c.ChatID, err)
	}
	return nil
}

func (d *DB) ListChats(ctx context.Context) ([]models.Chat, error) {
	var res []models.Chat
	err := d.SelectContext(ctx, &res,
		`SELECT chat_id, type, title, status, updated_at FROM chats ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ---------- sessions (fsm) --------------------------------------------------

type sessionRow struct {
	ChatID    int64  `db:"chat_id"`
	State     string `db:"state"`
	Mode      string `db:"mode"`
	PlaceLink string `db:"place_link"`
	PlaceName string `db:"place_name"`
	QueryLink string `db:"query_link"`
	QueryName string `db:"query_name"`
	Options   string `db:"options"`
	UpdatedAt int64  `db:"updated_at"`
}

func (d *DB) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	var row sessionRow
	err := d.GetContext(ctx, &row, d.Rebind(`
        SELECT chat_id, state, mode, place_link, place_name, query_link, query_name, options, updated_at
        FROM sessions WHERE chat_id = ?`), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s := &models.Session{
		ChatID:    row.ChatID,
		State:     models.State(row.State),
		Mode:      models.Mode(row.Mode),
		PlaceLink: row.PlaceLink,
		PlaceName: row.PlaceName,
		QueryLink: row.QueryLink,
		QueryName: row.QueryName,
		UpdatedAt: time.Unix(row.UpdatedAt, 0),
	}
	if err := json.Unmarshal([]byte(row.Options), &s.Options); err != nil {
		return nil, fmt.Errorf("decode options of chat %d: %w", chatID, err)
	}
	return s, nil
}

func (d *DB) Save(ctx context.Context, s *models.Session) error {
	opts := s.Options
	if opts == nil {
		opts = models.Options{}
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = d.NamedExecContext(ctx, `
        INSERT INTO sessions (chat_id, state, mode, place_link, place_name, query_link, query_name, options, updated_at)
        VALUES (:chat_id, :state, :mode, :place_link, :place_name, :query_link, :query_name, :options, :updated_at)
        ON CONFLICT(chat_id) DO UPDATE SET state=excluded.state,
            mode=excluded.mode,
            place_link=excluded.place_link,
            place_name=excluded.place_name,
            query_link=excluded.query_link,
            query_name=excluded.query_name,
            options=excluded.options,
            updated_at=excluded.updated_at`, sessionRow{
		ChatID:    s.ChatID,
		State:     string(s.State),
		Mode:      string(s.Mode),
		PlaceLink: s.PlaceLink,
		PlaceName: s.PlaceName,
		QueryLink: s.QueryLink,
		QueryName: s.QueryName,
		Options:   string(raw),
		UpdatedAt: updated.Unix(),
	})
	if err != nil {
		return fmt.Errorf("save session %d: %w", s.ChatID, err)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, chatID int64) error {
	_, err := d.ExecContext(ctx, d.Rebind(`DELETE FROM sessions WHERE chat_id = ?`), chatID)
	return err
}

// PruneSessions drops conversations untouched since before.
func (d *DB) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := d.ExecContext(ctx, d.Rebind(`DELETE FROM sessions WHERE updated_at < ?`), before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
