package models

import "time"

type Role string

const (
	RoleAdult Role = "adult"
	RoleChild Role = "child"
)

type Family struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Member struct {
	ID          string
	FamilyID    string
	OIDCSubject string
	Email       string
	Name        string
	AvatarURL   string
	Role        Role
	Color       string
	BirthDate   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Contact struct {
	ID        string
	FamilyID  string
	Name      string
	BirthDate *time.Time
	CreatedAt time.Time
}

type FamilyEvent struct {
	ID                string
	FamilyID          string
	Title             string
	Description       string
	Location          string
	StartTime         time.Time
	EndTime           *time.Time
	AllDay            bool
	Timezone          string
	AssigneeID        *string
	Color             *string
	Icon              *string
	RecurrenceRule    *string
	CreatedByMemberID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

type Task struct {
	ID            string
	FamilyID      string
	Title         string
	Notes         string
	Status        TaskStatus
	AssigneeID    *string
	DueDate       *time.Time
	ScheduledDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusAchieved  GoalStatus = "achieved"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

type Goal struct {
	ID        string
	FamilyID  string
	Title     string
	Status    GoalStatus
	// MemberID is nil for family-wide goals.
	MemberID   *string
	TargetDate *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
)

type MealPlan struct {
	FamilyID          string
	Date              string
	MealType          MealType
	Name              string
	Notes             string
	CreatedByMemberID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Visibility string

const (
	VisibilityOwner  Visibility = "owner"
	VisibilityAdults Visibility = "adults"
	VisibilityFamily Visibility = "family"
)

// CalendarConnection links one member to their Google account. At most one
// per member; deleted only by an explicit disconnect.
type CalendarConnection struct {
	ID              string
	FamilyID        string
	MemberID        string
	GoogleAccountID string
	GoogleEmail     string
	AccessToken     string
	RefreshToken    *string
	TokenExpiry     time.Time
	Scopes          string
	LastSyncedAt    *time.Time
	LastSyncError   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CalendarSubscription is one Google calendar the member mirrors. The full
// set is recreated from the provider's calendar list on every (re)connect.
type CalendarSubscription struct {
	ID               string
	ConnectionID     string
	GoogleCalendarID string
	Name             string
	Color            string
	Visibility       Visibility
	Active           bool
	CreatedAt        time.Time
}

// ExternalEvent mirrors one remote event instance for one subscription.
// Rows live and die by windowed replace during sync; they carry no history.
type ExternalEvent struct {
	ID              string
	SubscriptionID  string
	GoogleEventID   string
	Title           string
	Description     string
	Location        string
	StartTime       time.Time
	EndTime         *time.Time
	AllDay          bool
	Timezone        string
	Color           string
	RemoteUpdatedAt *time.Time
	FetchedAt       time.Time
}

// CalendarFeed is a tokenized public ICS feed. The raw token is shown once
// at creation; only its hash is stored.
type CalendarFeed struct {
	ID       string
	FamilyID string
	// MemberID scopes the feed to one member; nil means whole family.
	MemberID         *string
	Name             string
	TokenHash        string
	IncludeTasks     bool
	IncludeMeals     bool
	IncludeGoals     bool
	IncludeEvents    bool
	IncludeBirthdays bool
	LastAccessedAt   *time.Time
	AccessCount      int
	CreatedAt        time.Time
}

type BirthdaySource string

const (
	BirthdaySourceMember  BirthdaySource = "member"
	BirthdaySourceContact BirthdaySource = "contact"
)

// Birthday is a computed occurrence of a birth date within a queried range.
// It is derived on every read and never stored.
type Birthday struct {
	SourceType BirthdaySource
	SourceID   string
	Name       string
	BirthDate  time.Time
	Date       time.Time
	AgeTurning int
}
