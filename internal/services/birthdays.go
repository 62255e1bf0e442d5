package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
)

// BirthdayService computes birthday occurrences for a date range from
// member and contact birth dates. Nothing is stored; every call derives the
// occurrences fresh.
type BirthdayService struct {
	memberRepo  repository.MemberRepository
	contactRepo repository.ContactRepository
}

func NewBirthdayService(memberRepo repository.MemberRepository, contactRepo repository.ContactRepository) *BirthdayService {
	return &BirthdayService{memberRepo: memberRepo, contactRepo: contactRepo}
}

func (service *BirthdayService) FindInRange(ctx context.Context, familyID string, from, to time.Time) ([]models.Birthday, error) {
	members, err := service.memberRepo.FindByFamilyID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("loading members for birthdays: %w", err)
	}
	contacts, err := service.contactRepo.FindByFamilyID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("loading contacts for birthdays: %w", err)
	}

	var birthdays []models.Birthday
	for _, member := range members {
		if member.BirthDate == nil {
			continue
		}
		birthdays = append(birthdays, occurrencesInRange(
			models.BirthdaySourceMember, member.ID, member.Name, *member.BirthDate, from, to)...)
	}
	for _, contact := range contacts {
		if contact.BirthDate == nil {
			continue
		}
		birthdays = append(birthdays, occurrencesInRange(
			models.BirthdaySourceContact, contact.ID, contact.Name, *contact.BirthDate, from, to)...)
	}
	return birthdays, nil
}

// occurrencesInRange yields one occurrence per anniversary falling in
// [from, to). A Feb 29 birth date lands on Mar 1 in non-leap years via
// time.Date normalization.
func occurrencesInRange(sourceType models.BirthdaySource, sourceID, name string, birthDate time.Time, from, to time.Time) []models.Birthday {
	var occurrences []models.Birthday
	for year := from.UTC().Year(); year <= to.UTC().Year(); year++ {
		occurrence := time.Date(year, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC)
		if occurrence.Before(from) || !occurrence.Before(to) {
			continue
		}
		if occurrence.Year() < birthDate.Year() {
			continue
		}
		occurrences = append(occurrences, models.Birthday{
			SourceType: sourceType,
			SourceID:   sourceID,
			Name:       name,
			BirthDate:  birthDate,
			Date:       occurrence,
			AgeTurning: year - birthDate.Year(),
		})
	}
	return occurrences
}
