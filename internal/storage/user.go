package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/bookstore/internal/domain/models"
)

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passHash []byte) error
	LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, pass_hash, first_name, last_name, phone, address, apartment,
	state, country, birth_date, gender, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	p := &user.Profile
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PassHash,
		&p.FirstName, &p.LastName, &p.Phone, &p.Address, &p.Apartment,
		&p.State, &p.Country, &p.BirthDate, &p.Gender, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email)
	return scanUser(row)
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// CreateUser - занятый email или username возвращает apperr.ErrConflict
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	p := user.Profile
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, pass_hash, first_name, last_name, phone, address, apartment,
			state, country, birth_date, gender)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		user.Username, user.Email, user.PassHash, p.FirstName, p.LastName, p.Phone, p.Address, p.Apartment,
		p.State, p.Country, p.BirthDate, p.Gender,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passHash []byte) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET pass_hash = $1 WHERE id = $2", passHash, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// LockUserByIDTx блокирует строку пользователя до конца транзакции.
// Так сериализуются параллельные слияния корзины и списка желаний одного пользователя.
func (r *userRepository) LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) error {
	var locked int64
	row := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", id)
	if err := row.Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return mapError(err)
	}
	return nil
}
