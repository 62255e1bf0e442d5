package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
)

// TimelineService merges family events, cached external events and computed
// birthdays into one sorted timeline. Pure read + transform + sort: safe to
// call repeatedly and concurrently.
type TimelineService struct {
	eventRepo    repository.FamilyEventRepository
	memberRepo   repository.MemberRepository
	externalRepo repository.ExternalEventRepository
	birthdays    *BirthdayService
}

func NewTimelineService(
	eventRepo repository.FamilyEventRepository,
	memberRepo repository.MemberRepository,
	externalRepo repository.ExternalEventRepository,
	birthdays *BirthdayService,
) *TimelineService {
	return &TimelineService{
		eventRepo:    eventRepo,
		memberRepo:   memberRepo,
		externalRepo: externalRepo,
		birthdays:    birthdays,
	}
}

// Merge fetches the three sources concurrently, transforms each into
// calendar items and sorts the union. A non-nil memberID narrows family
// events to that member's plus unassigned ones.
func (service *TimelineService) Merge(ctx context.Context, familyID string, viewer models.Member, memberID *string, from, to time.Time) ([]models.CalendarItem, error) {
	var (
		events       []models.FamilyEvent
		memberColors map[string]string
		external     []repository.ExternalEventRow
		birthdays    []models.Birthday
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		filter := repository.FamilyEventFilter{StartAfter: &from, StartBefore: &to}
		if memberID != nil {
			filter.AssigneeOrUnassigned = memberID
		}
		found, err := service.eventRepo.FindByFamilyID(groupCtx, familyID, filter)
		if err != nil {
			return fmt.Errorf("loading family events: %w", err)
		}
		members, err := service.memberRepo.FindByFamilyID(groupCtx, familyID)
		if err != nil {
			return fmt.Errorf("loading members: %w", err)
		}
		colors := make(map[string]string, len(members))
		for _, member := range members {
			colors[member.ID] = member.Color
		}
		events = found
		memberColors = colors
		return nil
	})

	group.Go(func() error {
		found, err := service.externalRepo.FindVisibleInRange(groupCtx, familyID, viewer, from, to)
		if err != nil {
			return fmt.Errorf("loading external events: %w", err)
		}
		external = found
		return nil
	})

	group.Go(func() error {
		found, err := service.birthdays.FindInRange(groupCtx, familyID, from, to)
		if err != nil {
			return fmt.Errorf("loading birthdays: %w", err)
		}
		birthdays = found
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	items := make([]models.CalendarItem, 0, len(events)+len(external)+len(birthdays))
	for _, event := range events {
		items = append(items, familyEventItem(event, memberColors))
	}
	for _, row := range external {
		items = append(items, externalEventItem(row))
	}
	for _, birthday := range birthdays {
		items = append(items, BirthdayItem(birthday))
	}

	models.SortCalendarItems(items)
	return items, nil
}

func familyEventItem(event models.FamilyEvent, memberColors map[string]string) models.CalendarItem {
	color := models.DefaultEventColor
	if event.Color != nil && *event.Color != "" {
		color = *event.Color
	} else if event.AssigneeID != nil {
		if assigneeColor := memberColors[*event.AssigneeID]; assigneeColor != "" {
			color = assigneeColor
		}
	}

	item := models.CalendarItem{
		ID:          "event-" + event.ID,
		Title:       event.Title,
		Start:       event.StartTime,
		End:         event.EndTime,
		AllDay:      event.AllDay,
		Color:       color,
		Type:        models.ItemTypeEvent,
		SourceID:    event.ID,
		Location:    event.Location,
		Description: event.Description,
	}
	if event.Icon != nil {
		item.Icon = *event.Icon
	}
	if event.AssigneeID != nil {
		item.AssigneeID = *event.AssigneeID
	}
	return item
}

func externalEventItem(row repository.ExternalEventRow) models.CalendarItem {
	color := row.Color
	if color == "" {
		color = row.CalendarColor
	}
	if color == "" {
		color = models.GoogleBrandColor
	}

	return models.CalendarItem{
		ID:           "external-" + row.ID,
		Title:        row.Title,
		Start:        row.StartTime,
		End:          row.EndTime,
		AllDay:       row.AllDay,
		Color:        color,
		Type:         models.ItemTypeExternal,
		SourceID:     row.ID,
		Location:     row.Location,
		Description:  row.Description,
		CalendarName: row.CalendarName,
	}
}

// BirthdayItem keys the item by source and occurrence date so the same
// person's birthday in different years never collides.
func BirthdayItem(birthday models.Birthday) models.CalendarItem {
	return models.CalendarItem{
		ID:       fmt.Sprintf("birthday-%s-%s", birthday.SourceID, birthday.Date.Format("2006-01-02")),
		Title:    birthday.Name + "'s Birthday",
		Start:    birthday.Date,
		AllDay:   true,
		Color:    models.BirthdayColor,
		Type:     models.ItemTypeBirthday,
		SourceID: birthday.SourceID,
		Icon:     models.BirthdayIcon,
		Metadata: map[string]any{"ageTurning": birthday.AgeTurning},
	}
}
