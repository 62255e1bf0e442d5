package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type ContactRepository interface {
	FindByFamilyID(ctx context.Context, familyID string) ([]models.Contact, error)
	Create(ctx context.Context, contact models.Contact) (models.Contact, error)
	Delete(ctx context.Context, id string) error
}

type SQLiteContactRepository struct {
	database *sql.DB
}

func NewContactRepository(database *sql.DB) *SQLiteContactRepository {
	return &SQLiteContactRepository{database: database}
}

func (repository *SQLiteContactRepository) FindByFamilyID(ctx context.Context, familyID string) ([]models.Contact, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, family_id, name, birth_date, created_at
		FROM contacts WHERE family_id = ? ORDER BY name ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("finding contacts by family: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var contact models.Contact
		if err := rows.Scan(&contact.ID, &contact.FamilyID, &contact.Name, &contact.BirthDate, &contact.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

func (repository *SQLiteContactRepository) Create(ctx context.Context, contact models.Contact) (models.Contact, error) {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	contact.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO contacts (id, family_id, name, birth_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		contact.ID, contact.FamilyID, contact.Name, contact.BirthDate, contact.CreatedAt,
	)
	if err != nil {
		return models.Contact{}, fmt.Errorf("creating contact: %w", err)
	}
	return contact, nil
}

func (repository *SQLiteContactRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	return nil
}
