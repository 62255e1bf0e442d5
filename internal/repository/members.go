package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
)

type MemberRepository interface {
	FindByID(ctx context.Context, id string) (models.Member, error)
	FindByOIDCSubject(ctx context.Context, subject string) (models.Member, error)
	FindByFamilyID(ctx context.Context, familyID string) ([]models.Member, error)
	Create(ctx context.Context, member models.Member) (models.Member, error)
	UpdateProfile(ctx context.Context, id, name, email, avatarURL string) error
	Count(ctx context.Context) (int, error)
}

type SQLiteMemberRepository struct {
	database *sql.DB
}

func NewMemberRepository(database *sql.DB) *SQLiteMemberRepository {
	return &SQLiteMemberRepository{database: database}
}

const memberColumns = `id, family_id, oidc_subject, email, name, avatar_url, role, color, birth_date, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (models.Member, error) {
	var member models.Member
	err := row.Scan(
		&member.ID, &member.FamilyID, &member.OIDCSubject, &member.Email,
		&member.Name, &member.AvatarURL, &member.Role, &member.Color,
		&member.BirthDate, &member.CreatedAt, &member.UpdatedAt,
	)
	return member, err
}

func (repository *SQLiteMemberRepository) FindByID(ctx context.Context, id string) (models.Member, error) {
	member, err := scanMember(repository.database.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id))
	if err != nil {
		return models.Member{}, fmt.Errorf("finding member by id: %w", err)
	}
	return member, nil
}

func (repository *SQLiteMemberRepository) FindByOIDCSubject(ctx context.Context, subject string) (models.Member, error) {
	member, err := scanMember(repository.database.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE oidc_subject = ?`, subject))
	if err != nil {
		return models.Member{}, fmt.Errorf("finding member by oidc subject: %w", err)
	}
	return member, nil
}

func (repository *SQLiteMemberRepository) FindByFamilyID(ctx context.Context, familyID string) ([]models.Member, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE family_id = ? ORDER BY created_at ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("finding members by family: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (repository *SQLiteMemberRepository) Create(ctx context.Context, member models.Member) (models.Member, error) {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.Role == "" {
		member.Role = models.RoleAdult
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO members (id, family_id, oidc_subject, email, name, avatar_url, role, color, birth_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.FamilyID, member.OIDCSubject, member.Email,
		member.Name, member.AvatarURL, member.Role, member.Color,
		member.BirthDate, member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return models.Member{}, fmt.Errorf("creating member: %w", err)
	}
	return member, nil
}

func (repository *SQLiteMemberRepository) UpdateProfile(ctx context.Context, id, name, email, avatarURL string) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE members SET name = ?, email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		name, email, avatarURL, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating member profile: %w", err)
	}
	return nil
}

func (repository *SQLiteMemberRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := repository.database.QueryRowContext(ctx, "SELECT COUNT(*) FROM members").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting members: %w", err)
	}
	return count, nil
}
