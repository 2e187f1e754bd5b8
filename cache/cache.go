// Package cache stores single-line translations in a SQLite database so
// repeated runs over the same text do not pay for the same request twice.
//
// A Cache satisfies translate.Cache and is wired in with translate.WithCache.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/minios-linux/bitrans/translate"
)

const table = "translations"

var _ translate.Cache = (*Cache)(nil)

// Cache is a SQLite-backed translation cache.
type Cache struct {
	DB *sql.DB
	SQ sq.StatementBuilderType
}

// Open opens (creating if needed) the cache database at path. Use
// ":memory:" for a throwaway cache.
func Open(path string) (*Cache, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Cache{DB: db, SQ: sq.StatementBuilder}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.DB.Close()
}

func keyEq(key translate.CacheKey) sq.Eq {
	return sq.Eq{
		"source_text": key.Text,
		"from_lang":   key.FromLang,
		"to_lang":     key.ToLang,
		"model":       key.Model,
	}
}

// Get returns the stored translation for key.
func (c *Cache) Get(ctx context.Context, key translate.CacheKey) (string, bool, error) {
	q := c.SQ.Select("translation").
		From(table).
		Where(keyEq(key)).
		Limit(1)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return "", false, err
	}

	var translation string
	if err := c.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&translation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return translation, true, nil
}

// Put stores or replaces the translation for key.
func (c *Cache) Put(ctx context.Context, key translate.CacheKey, translation string) error {
	q := c.SQ.
		Insert(table).
		Columns(
			"source_text",
			"from_lang",
			"to_lang",
			"model",
			"translation",
			"created_at",
		).
		Values(
			key.Text,
			key.FromLang,
			key.ToLang,
			key.Model,
			translation,
			time.Now().UTC().Format(time.RFC3339),
		).
		Suffix("ON CONFLICT(source_text, from_lang, to_lang, model) DO UPDATE SET translation=excluded.translation, created_at=excluded.created_at")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}
	_, err = c.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

// Count returns the number of stored translations.
func (c *Cache) Count(ctx context.Context) (int, error) {
	sqlStr, args, err := c.SQ.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := c.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Prune deletes entries stored before cutoff and returns how many were
// removed. A zero cutoff removes everything.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	q := c.SQ.Delete(table)
	if !cutoff.IsZero() {
		q = q.Where(sq.Lt{"created_at": cutoff.UTC().Format(time.RFC3339)})
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := c.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
