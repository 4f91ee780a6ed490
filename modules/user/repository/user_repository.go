package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-reminder-api/core/database"
	"go-reminder-api/core/logger"
	"go-reminder-api/modules/user/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetTokensByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.UserToken, error)
	SetPushToken(ctx context.Context, id uuid.UUID, token string) error
	ClearPushToken(ctx context.Context, id uuid.UUID) error
}

type UserRepository struct {
	db database.IDatabase
}

func NewUserRepository(db database.IDatabase) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("UserRepository:GetByID:Error:", err)
		return nil, err
	}
	return &user, nil
}

// GetTokensByIDs returns the registered push tokens among the given users.
// Users without a token are simply absent from the result.
func (r *UserRepository) GetTokensByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.UserToken, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id, push_token FROM users WHERE id IN (?) AND push_token IS NOT NULL AND push_token != ''`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.SQLx().Rebind(query)

	var tokens []entity.UserToken
	err = r.db.SelectContext(ctx, &tokens, query, args...)
	if err != nil {
		logger.Error("UserRepository:GetTokensByIDs:Error:", err)
		return nil, err
	}
	return tokens, nil
}

func (r *UserRepository) SetPushToken(ctx context.Context, id uuid.UUID, token string) error {
	err := r.db.ExecContext(ctx, `UPDATE users SET push_token = $1, updated_at = $2 WHERE id = $3`, token, time.Now(), id)
	if err != nil {
		logger.Error("UserRepository:SetPushToken:Error:", err)
		return err
	}
	return nil
}

func (r *UserRepository) ClearPushToken(ctx context.Context, id uuid.UUID) error {
	err := r.db.ExecContext(ctx, `UPDATE users SET push_token = NULL, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		logger.Error("UserRepository:ClearPushToken:Error:", err)
		return err
	}
	return nil
}
