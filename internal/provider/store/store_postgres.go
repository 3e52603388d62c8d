package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kidsearch/internal/provider/models"
	"kidsearch/pkg/platform/sentinel"
	txcontext "kidsearch/pkg/platform/tx"
)

// PostgresStore persists owners and institutions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbSession interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) session(ctx context.Context) dbSession {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateOwner(ctx context.Context, owner *models.Owner) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO owners (user_id) VALUES ($1) RETURNING id, created_at",
		owner.UserID,
	).Scan(&owner.ID, &owner.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("create owner: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) OwnerByUserID(ctx context.Context, userID int64) (*models.Owner, error) {
	owner := &models.Owner{}
	err := s.session(ctx).QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM owners WHERE user_id = $1",
		userID,
	).Scan(&owner.ID, &owner.UserID, &owner.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find owner: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}
	return owner, nil
}

func (s *PostgresStore) CreateInstitution(ctx context.Context, institution *models.Institution) error {
	err := s.session(ctx).QueryRowContext(ctx,
		`INSERT INTO institutions (name, owner_id, address_id)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		institution.Name, institution.OwnerID, institution.AddressID,
	).Scan(&institution.ID, &institution.CreatedAt)
	if err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

func (s *PostgresStore) InstitutionByID(ctx context.Context, id int64) (*models.Institution, error) {
	inst := &models.Institution{}
	err := s.session(ctx).QueryRowContext(ctx,
		`SELECT id, name, owner_id, address_id, created_at
		 FROM institutions WHERE id = $1`,
		id,
	).Scan(&inst.ID, &inst.Name, &inst.OwnerID, &inst.AddressID, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find institution: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return inst, nil
}

func (s *PostgresStore) InstitutionsByOwner(ctx context.Context, ownerID int64) ([]*models.Institution, error) {
	rows, err := s.session(ctx).QueryContext(ctx,
		`SELECT id, name, owner_id, address_id, created_at
		 FROM institutions WHERE owner_id = $1 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	defer rows.Close()

	var institutions []*models.Institution
	for rows.Next() {
		inst := &models.Institution{}
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.OwnerID, &inst.AddressID, &inst.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan institution: %w", err)
		}
		institutions = append(institutions, inst)
	}
	return institutions, rows.Err()
}
