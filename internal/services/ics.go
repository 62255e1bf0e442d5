package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
)

const (
	feedWindowPast   = 7   // days
	feedWindowFuture = 180 // days
)

// ICSService renders a feed's selected slice of family data into an
// iCalendar document. UIDs and DTSTAMPs are derived from entity identity
// and update times, never from the generation instant, so unchanged data
// produces byte-identical output.
type ICSService struct {
	familyRepo repository.FamilyRepository
	eventRepo  repository.FamilyEventRepository
	taskRepo   repository.TaskRepository
	goalRepo   repository.GoalRepository
	mealRepo   repository.MealPlanRepository
	birthdays  *BirthdayService
}

func NewICSService(
	familyRepo repository.FamilyRepository,
	eventRepo repository.FamilyEventRepository,
	taskRepo repository.TaskRepository,
	goalRepo repository.GoalRepository,
	mealRepo repository.MealPlanRepository,
	birthdays *BirthdayService,
) *ICSService {
	return &ICSService{
		familyRepo: familyRepo,
		eventRepo:  eventRepo,
		taskRepo:   taskRepo,
		goalRepo:   goalRepo,
		mealRepo:   mealRepo,
		birthdays:  birthdays,
	}
}

func (service *ICSService) Generate(ctx context.Context, feed models.CalendarFeed) ([]byte, error) {
	family, err := service.familyRepo.FindByID(ctx, feed.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("loading family: %w", err)
	}

	// day-aligned window keeps repeated generation within a day stable
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -feedWindowPast)
	to := today.AddDate(0, 0, feedWindowFuture)

	calendarName := family.Name + " Calendar"

	var builder strings.Builder
	builder.WriteString("BEGIN:VCALENDAR\r\n")
	builder.WriteString("VERSION:2.0\r\n")
	builder.WriteString("PRODID:-//Fam App//Fam App//EN\r\n")
	builder.WriteString("CALSCALE:GREGORIAN\r\n")
	builder.WriteString("METHOD:PUBLISH\r\n")
	builder.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICalText(calendarName)))

	if feed.IncludeEvents {
		if err := service.writeEvents(ctx, &builder, feed, from, to); err != nil {
			return nil, err
		}
	}
	if feed.IncludeTasks {
		if err := service.writeTasks(ctx, &builder, feed, from, to); err != nil {
			return nil, err
		}
	}
	if feed.IncludeMeals {
		if err := service.writeMeals(ctx, &builder, feed, from, to); err != nil {
			return nil, err
		}
	}
	if feed.IncludeGoals {
		if err := service.writeGoals(ctx, &builder, feed, from, to); err != nil {
			return nil, err
		}
	}
	if feed.IncludeBirthdays {
		if err := service.writeBirthdays(ctx, &builder, feed, from, to); err != nil {
			return nil, err
		}
	}

	builder.WriteString("END:VCALENDAR\r\n")
	return []byte(builder.String()), nil
}

func (service *ICSService) writeEvents(ctx context.Context, builder *strings.Builder, feed models.CalendarFeed, from, to time.Time) error {
	filter := repository.FamilyEventFilter{StartAfter: &from, StartBefore: &to}
	if feed.MemberID != nil {
		filter.AssigneeOrUnassigned = feed.MemberID
	}
	events, err := service.eventRepo.FindByFamilyID(ctx, feed.FamilyID, filter)
	if err != nil {
		return fmt.Errorf("loading events for feed: %w", err)
	}

	for _, event := range events {
		builder.WriteString("BEGIN:VEVENT\r\n")
		builder.WriteString(fmt.Sprintf("UID:event-%s@fam-app\r\n", event.ID))
		builder.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText(event.Title)))
		if event.Description != "" {
			builder.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICalText(event.Description)))
		}
		if event.Location != "" {
			builder.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICalText(event.Location)))
		}
		if event.AllDay {
			writeAllDaySpan(builder, event.StartTime, event.EndTime)
		} else {
			builder.WriteString(fmt.Sprintf("DTSTART:%s\r\n", event.StartTime.UTC().Format("20060102T150405Z")))
			if event.EndTime != nil {
				builder.WriteString(fmt.Sprintf("DTEND:%s\r\n", event.EndTime.UTC().Format("20060102T150405Z")))
			}
		}
		if event.RecurrenceRule != nil && *event.RecurrenceRule != "" {
			builder.WriteString(fmt.Sprintf("RRULE:%s\r\n", *event.RecurrenceRule))
		}
		builder.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", event.UpdatedAt.UTC().Format("20060102T150405Z")))
		builder.WriteString("END:VEVENT\r\n")
	}
	return nil
}

func (service *ICSService) writeTasks(ctx context.Context, builder *strings.Builder, feed models.CalendarFeed, from, to time.Time) error {
	tasks, err := service.taskRepo.FindScheduled(ctx, feed.FamilyID, from, to, feed.MemberID)
	if err != nil {
		return fmt.Errorf("loading tasks for feed: %w", err)
	}

	for _, task := range tasks {
		date := task.DueDate
		if date == nil {
			date = task.ScheduledDate
		}
		if date == nil {
			continue
		}
		builder.WriteString("BEGIN:VEVENT\r\n")
		builder.WriteString(fmt.Sprintf("UID:task-%s@fam-app\r\n", task.ID))
		builder.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText("[Task] "+task.Title)))
		if task.Notes != "" {
			builder.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICalText(task.Notes)))
		}
		writeAllDaySpan(builder, *date, nil)
		builder.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", task.UpdatedAt.UTC().Format("20060102T150405Z")))
		builder.WriteString("END:VEVENT\r\n")
	}
	return nil
}

func (service *ICSService) writeMeals(ctx context.Context, builder *strings.Builder, feed models.CalendarFeed, from, to time.Time) error {
	meals, err := service.mealRepo.FindRange(ctx, feed.FamilyID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("loading meals for feed: %w", err)
	}

	for _, meal := range meals {
		date, err := time.Parse("2006-01-02", meal.Date)
		if err != nil {
			continue
		}
		builder.WriteString("BEGIN:VEVENT\r\n")
		builder.WriteString(fmt.Sprintf("UID:meal-%s-%s-%s@fam-app\r\n", meal.FamilyID, meal.Date, string(meal.MealType)))
		mealLabel := capitalizeFirst(string(meal.MealType))
		builder.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText(fmt.Sprintf("[%s] %s", mealLabel, meal.Name))))
		if meal.Notes != "" {
			builder.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICalText(meal.Notes)))
		}
		writeAllDaySpan(builder, date, nil)
		builder.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", meal.UpdatedAt.UTC().Format("20060102T150405Z")))
		builder.WriteString("END:VEVENT\r\n")
	}
	return nil
}

func (service *ICSService) writeGoals(ctx context.Context, builder *strings.Builder, feed models.CalendarFeed, from, to time.Time) error {
	goals, err := service.goalRepo.FindActiveWithTarget(ctx, feed.FamilyID, from, to, feed.MemberID)
	if err != nil {
		return fmt.Errorf("loading goals for feed: %w", err)
	}

	for _, goal := range goals {
		if goal.TargetDate == nil {
			continue
		}
		builder.WriteString("BEGIN:VEVENT\r\n")
		builder.WriteString(fmt.Sprintf("UID:goal-%s@fam-app\r\n", goal.ID))
		builder.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText("[Goal] "+goal.Title)))
		writeAllDaySpan(builder, *goal.TargetDate, nil)
		builder.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", goal.UpdatedAt.UTC().Format("20060102T150405Z")))
		builder.WriteString("END:VEVENT\r\n")
	}
	return nil
}

func (service *ICSService) writeBirthdays(ctx context.Context, builder *strings.Builder, feed models.CalendarFeed, from, to time.Time) error {
	birthdays, err := service.birthdays.FindInRange(ctx, feed.FamilyID, from, to)
	if err != nil {
		return fmt.Errorf("loading birthdays for feed: %w", err)
	}

	for _, birthday := range birthdays {
		builder.WriteString("BEGIN:VEVENT\r\n")
		builder.WriteString(fmt.Sprintf("UID:birthday-%s-%s@fam-app\r\n", birthday.SourceID, birthday.Date.Format("20060102")))
		builder.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText(birthday.Name+"'s Birthday")))
		builder.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICalText(fmt.Sprintf("Turning %d", birthday.AgeTurning))))
		writeAllDaySpan(builder, birthday.Date, nil)
		builder.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", birthday.BirthDate.UTC().Format("20060102T150405Z")))
		builder.WriteString("END:VEVENT\r\n")
	}
	return nil
}

// writeAllDaySpan writes date-only bounds. End date is exclusive per the
// iCal spec, so a missing end becomes start plus one day.
func writeAllDaySpan(builder *strings.Builder, start time.Time, end *time.Time) {
	builder.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", start.UTC().Format("20060102")))
	endDate := start.UTC().AddDate(0, 0, 1)
	if end != nil && end.After(start) {
		endDate = end.UTC()
	}
	builder.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", endDate.Format("20060102")))
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func escapeICalText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ";", "\\;")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return text
}
