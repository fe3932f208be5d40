// Package gueststore хранит состояние клиента на диске в sqlite:
// гостевые корзину и список желаний, а также токен сессии после входа.
package gueststore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linemk/bookstore/internal/domain/models"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Session - сохранённый вход пользователя
type Session struct {
	Token    string
	UserID   int64
	Username string
}

type Store struct {
	db *sql.DB
}

// Open создаёт или открывает файл базы по пути path и применяет схему
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open guest store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to guest store: %w", err)
	}

	// sqlite допускает одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set user_version: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadCart возвращает гостевую корзину в порядке добавления. Пустая корзина - пустой срез.
func (s *Store) LoadCart(ctx context.Context) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT book_id, quantity FROM cart_items ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query guest cart: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.BookID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan guest cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveCart заменяет гостевую корзину целиком
func (s *Store) SaveCart(ctx context.Context, items []models.CartItem) error {
	return s.replace(ctx, "cart_items", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO cart_items (position, book_id, quantity) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, it := range items {
			if _, err := stmt.ExecContext(ctx, i, it.BookID, it.Quantity); err != nil {
				return fmt.Errorf("failed to insert guest cart item %d: %w", it.BookID, err)
			}
		}
		return nil
	})
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.SaveCart(ctx, nil)
}

// LoadWishlist возвращает гостевой список желаний в порядке добавления
func (s *Store) LoadWishlist(ctx context.Context) ([]models.WishlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT book_id FROM wishlist_items ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query guest wishlist: %w", err)
	}
	defer rows.Close()

	entries := []models.WishlistEntry{}
	for rows.Next() {
		var e models.WishlistEntry
		if err := rows.Scan(&e.BookID); err != nil {
			return nil, fmt.Errorf("failed to scan guest wishlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveWishlist заменяет гостевой список желаний целиком
func (s *Store) SaveWishlist(ctx context.Context, entries []models.WishlistEntry) error {
	return s.replace(ctx, "wishlist_items", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO wishlist_items (position, book_id) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, i, e.BookID); err != nil {
				return fmt.Errorf("failed to insert guest wishlist entry %d: %w", e.BookID, err)
			}
		}
		return nil
	})
}

func (s *Store) ClearWishlist(ctx context.Context) error {
	return s.SaveWishlist(ctx, nil)
}

// SaveSession запоминает токен вошедшего пользователя
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session (id, token, user_id, username) VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET token = excluded.token, user_id = excluded.user_id, username = excluded.username`,
		sess.Token, sess.UserID, sess.Username)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession возвращает сохранённую сессию; ok=false, если вход не выполнен
func (s *Store) LoadSession(ctx context.Context) (Session, bool, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, "SELECT token, user_id, username FROM session WHERE id = 1").
		Scan(&sess.Token, &sess.UserID, &sess.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, true, nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// DeviceID - постоянный идентификатор установки клиента, создаётся при первом обращении
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT device_id FROM device WHERE id = 1").Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to load device id: %w", err)
	}

	newID, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO device (id, device_id) VALUES (1, ?)", newID.String()); err != nil {
		return "", fmt.Errorf("failed to save device id: %w", err)
	}
	return newID.String(), nil
}

func (s *Store) replace(ctx context.Context, table string, insert func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}
