package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"telegram-schedule-bot/internal/models"
)

// Mirror of what the bot fetched from the site. Nothing in the dialog reads
// it back; it is kept for auditing.

func (d *DB) RecordPlaces(ctx context.Context, places models.Options) error {
	now := time.Now().Unix()
	return d.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, p := range places {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
                INSERT INTO place (link, name, fetched_at) VALUES (?,?,?)
                ON CONFLICT(link) DO UPDATE SET name=excluded.name, fetched_at=excluded.fetched_at`),
				p.Link, p.Name, now); err != nil {
				return fmt.Errorf("upsert place %q: %w", p.Name, err)
			}
		}
		return nil
	})
}

func (d *DB) RecordGroups(ctx context.Context, placeLink string, groups models.Options) error {
	now := time.Now().Unix()
	return d.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, g := range groups {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
                INSERT INTO study_group (link, name, place_link, fetched_at) VALUES (?,?,?,?)
                ON CONFLICT(link) DO UPDATE SET name=excluded.name,
                    place_link=excluded.place_link,
                    fetched_at=excluded.fetched_at`),
				g.Link, g.Name, placeLink, now); err != nil {
				return fmt.Errorf("upsert group %q: %w", g.Name, err)
			}
		}
		return nil
	})
}

func (d *DB) RecordTeachers(ctx context.Context, teachers models.Options) error {
	now := time.Now().Unix()
	return d.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, t := range teachers {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
                INSERT INTO teacher (link, fio, fetched_at) VALUES (?,?,?)
                ON CONFLICT(link) DO UPDATE SET fio=excluded.fio, fetched_at=excluded.fetched_at`),
				t.Link, t.Name, now); err != nil {
				return fmt.Errorf("upsert teacher %q: %w", t.Name, err)
			}
		}
		return nil
	})
}

// RecordSchedule replaces the stored entries of one schedule page.
func (d *DB) RecordSchedule(ctx context.Context, queryLink string, week models.WeekSchedule) error {
	now := time.Now().Unix()
	return d.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM schedule_entry WHERE query_link = ?`), queryLink); err != nil {
			return err
		}
		for _, day := range models.Days {
			for slot, subjects := range week[day] {
				for pos, s := range subjects {
					if _, err := tx.ExecContext(ctx, tx.Rebind(`
                        INSERT INTO schedule_entry
                          (id, query_link, day, slot, position, name, teacher, place, other, type, week, fetched_at)
                        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`),
						uuid.NewString(), queryLink, day, slot, pos,
						s.Name, s.Teacher, s.Place, s.Other, int(s.Type), int(s.Week), now); err != nil {
						return fmt.Errorf("insert entry %s/%d: %w", day, slot, err)
					}
				}
			}
		}
		return nil
	})
}

func (d *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
