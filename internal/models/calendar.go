package models

import (
	"sort"
	"time"
)

type CalendarItemType string

const (
	ItemTypeBirthday CalendarItemType = "birthday"
	ItemTypeEvent    CalendarItemType = "event"
	ItemTypeExternal CalendarItemType = "external"
	ItemTypeTask     CalendarItemType = "task"
	ItemTypeMeal     CalendarItemType = "meal"
)

const (
	DefaultEventColor = "#3B82F6"
	GoogleBrandColor  = "#4285F4"
	BirthdayColor     = "#EC4899"
	BirthdayIcon      = "cake"
)

// CalendarItem is the display projection every timeline source collapses
// into. It is recomputed on every read and never persisted.
type CalendarItem struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Start        time.Time        `json:"start"`
	End          *time.Time       `json:"end,omitempty"`
	AllDay       bool             `json:"allDay"`
	Color        string           `json:"color"`
	Type         CalendarItemType `json:"type"`
	SourceID     string           `json:"sourceId"`
	Icon         string           `json:"icon,omitempty"`
	Location     string           `json:"location,omitempty"`
	Description  string           `json:"description,omitempty"`
	AssigneeID   string           `json:"assigneeId,omitempty"`
	CalendarName string           `json:"calendarName,omitempty"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
}

var itemTypePriority = map[CalendarItemType]int{
	ItemTypeBirthday: 0,
	ItemTypeEvent:    1,
	ItemTypeExternal: 2,
	ItemTypeTask:     3,
	ItemTypeMeal:     4,
}

// SortCalendarItems establishes the timeline's total order: calendar day
// ascending, all-day items before timed items within a day, then start
// instant, then type priority birthday < event < external < task < meal.
func SortCalendarItems(items []CalendarItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]

		dayA := a.Start.UTC().Truncate(24 * time.Hour)
		dayB := b.Start.UTC().Truncate(24 * time.Hour)
		if !dayA.Equal(dayB) {
			return dayA.Before(dayB)
		}

		if a.AllDay != b.AllDay {
			return a.AllDay
		}

		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}

		return itemTypePriority[a.Type] < itemTypePriority[b.Type]
	})
}
