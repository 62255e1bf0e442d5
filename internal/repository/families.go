package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type FamilyRepository interface {
	FindByID(ctx context.Context, id string) (models.Family, error)
	// FindFirst returns the earliest-created family. Single-household
	// deployments have exactly one.
	FindFirst(ctx context.Context) (models.Family, error)
	Create(ctx context.Context, family models.Family) (models.Family, error)
	Count(ctx context.Context) (int, error)
}

type SQLiteFamilyRepository struct {
	database *sql.DB
}

func NewFamilyRepository(database *sql.DB) *SQLiteFamilyRepository {
	return &SQLiteFamilyRepository{database: database}
}

func (repository *SQLiteFamilyRepository) FindByID(ctx context.Context, id string) (models.Family, error) {
	var family models.Family
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM families WHERE id = ?`, id,
	).Scan(&family.ID, &family.Name, &family.CreatedAt)
	if err != nil {
		return models.Family{}, fmt.Errorf("finding family by id: %w", err)
	}
	return family, nil
}

func (repository *SQLiteFamilyRepository) FindFirst(ctx context.Context) (models.Family, error) {
	var family models.Family
	err := repository.database.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM families ORDER BY created_at ASC LIMIT 1`,
	).Scan(&family.ID, &family.Name, &family.CreatedAt)
	if err != nil {
		return models.Family{}, fmt.Errorf("finding first family: %w", err)
	}
	return family, nil
}

func (repository *SQLiteFamilyRepository) Create(ctx context.Context, family models.Family) (models.Family, error) {
	if family.ID == "" {
		family.ID = uuid.New().String()
	}
	family.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO families (id, name, created_at) VALUES (?, ?, ?)`,
		family.ID, family.Name, family.CreatedAt,
	)
	if err != nil {
		return models.Family{}, fmt.Errorf("creating family: %w", err)
	}
	return family, nil
}

func (repository *SQLiteFamilyRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := repository.database.QueryRowContext(ctx, "SELECT COUNT(*) FROM families").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting families: %w", err)
	}
	return count, nil
}
