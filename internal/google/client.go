package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	oauth2google "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// requestTimeout bounds every provider call. A hanging Google API must not
// stall a sync run.
const requestTimeout = 15 * time.Second

type UserInfo struct {
	ID    string
	Email string
}

type Calendar struct {
	ID      string
	Name    string
	Color   string
	Primary bool
}

// Event is a provider event normalized to local time semantics: date-only
// values become all-day UTC day boundaries, date-time values keep the
// provider's timezone label.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         *time.Time
	AllDay      bool
	Timezone    string
	Updated     *time.Time
}

type Client struct {
	config *oauth2.Config
}

func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     oauth2google.Endpoint,
			Scopes: []string{
				calendar.CalendarReadonlyScope,
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
	}
}

// AuthCodeURL requests offline access with a forced consent prompt so the
// first authorization always yields a refresh token.
func (client *Client) AuthCodeURL(state string) string {
	return client.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (client *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	token, err := client.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

func (client *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	source := client.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing access token: %w", err)
	}
	return token, nil
}

func (client *Client) UserInfo(ctx context.Context, token *oauth2.Token) (UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	service, err := oauth2api.NewService(ctx, option.WithTokenSource(client.config.TokenSource(ctx, token)))
	if err != nil {
		return UserInfo{}, fmt.Errorf("creating userinfo service: %w", err)
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return UserInfo{}, fmt.Errorf("fetching user info: %w", err)
	}

	return UserInfo{ID: info.Id, Email: info.Email}, nil
}

func (client *Client) ListCalendars(ctx context.Context, token *oauth2.Token) ([]Calendar, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	service, err := calendar.NewService(ctx, option.WithTokenSource(client.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	list, err := service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing calendars: %w", err)
	}

	var calendars []Calendar
	for _, entry := range list.Items {
		calendars = append(calendars, Calendar{
			ID:      entry.Id,
			Name:    entry.Summary,
			Color:   entry.BackgroundColor,
			Primary: entry.Primary,
		})
	}
	return calendars, nil
}

// ListEvents fetches events of one calendar in [from, to), recurring events
// expanded into concrete instances by the provider, capped at maxResults.
func (client *Client) ListEvents(ctx context.Context, token *oauth2.Token, calendarID string, from, to time.Time, maxResults int64) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	service, err := calendar.NewService(ctx, option.WithTokenSource(client.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	result, err := service.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.UTC().Format(time.RFC3339)).
		TimeMax(to.UTC().Format(time.RFC3339)).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events for calendar %q: %w", calendarID, err)
	}

	var events []Event
	for _, item := range result.Items {
		events = append(events, convertEvent(item))
	}
	return events, nil
}

func convertEvent(item *calendar.Event) Event {
	event := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}

	if item.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, item.Updated); err == nil {
			utc := updated.UTC()
			event.Updated = &utc
		}
	}

	if start, allDay, timezone, ok := parseEventTime(item.Start); ok {
		event.Start = start
		event.AllDay = allDay
		event.Timezone = timezone
	}
	if end, _, _, ok := parseEventTime(item.End); ok {
		event.End = &end
	}

	return event
}

func parseEventTime(value *calendar.EventDateTime) (t time.Time, allDay bool, timezone string, ok bool) {
	if value == nil {
		return time.Time{}, false, "", false
	}
	if value.Date != "" {
		parsed, err := time.Parse("2006-01-02", value.Date)
		if err != nil {
			return time.Time{}, false, "", false
		}
		return parsed.UTC(), true, "", true
	}
	if value.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, value.DateTime)
		if err != nil {
			return time.Time{}, false, "", false
		}
		return parsed, false, value.TimeZone, true
	}
	return time.Time{}, false, "", false
}
