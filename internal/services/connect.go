package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/hazelquimpo21/fam-app-sub002/internal/google"
	"github.com/hazelquimpo21/fam-app-sub002/internal/models"
	"github.com/hazelquimpo21/fam-app-sub002/internal/repository"
)

// ConnectProvider is the slice of the Google client the connect flow needs.
type ConnectProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, token *oauth2.Token) (google.UserInfo, error)
	ListCalendars(ctx context.Context, token *oauth2.Token) ([]google.Calendar, error)
}

// ConnectService owns the Google Calendar connection lifecycle: the OAuth
// dance, connection upsert, and subscription reseeding.
type ConnectService struct {
	connectionRepo   repository.ConnectionRepository
	subscriptionRepo repository.SubscriptionRepository
	provider         ConnectProvider
}

func NewConnectService(
	connectionRepo repository.ConnectionRepository,
	subscriptionRepo repository.SubscriptionRepository,
	provider ConnectProvider,
) *ConnectService {
	return &ConnectService{
		connectionRepo:   connectionRepo,
		subscriptionRepo: subscriptionRepo,
		provider:         provider,
	}
}

func (service *ConnectService) GenerateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (service *ConnectService) AuthorizationURL(state string) string {
	return service.provider.AuthCodeURL(state)
}

// ValidateState compares the callback's state against the nonce issued at
// the start of the flow.
func (service *ConnectService) ValidateState(expected, got string) error {
	if expected == "" || got != expected {
		return ErrInvalidState
	}
	return nil
}

// CompleteAuthorization exchanges the code, upserts the member's connection
// and reseeds its subscriptions from the provider's current calendar list,
// enabling only the primary calendar by default.
func (service *ConnectService) CompleteAuthorization(ctx context.Context, member models.Member, code string) (models.CalendarConnection, error) {
	token, err := service.provider.Exchange(ctx, code)
	if err != nil {
		return models.CalendarConnection{}, fmt.Errorf("exchanging code: %w", err)
	}

	userInfo, err := service.provider.UserInfo(ctx, token)
	if err != nil {
		return models.CalendarConnection{}, fmt.Errorf("fetching google account: %w", err)
	}

	var refreshToken *string
	if token.RefreshToken != "" {
		refreshToken = &token.RefreshToken
	}
	scopes, _ := token.Extra("scope").(string)

	connection, err := service.connectionRepo.Upsert(ctx, models.CalendarConnection{
		FamilyID:        member.FamilyID,
		MemberID:        member.ID,
		GoogleAccountID: userInfo.ID,
		GoogleEmail:     userInfo.Email,
		AccessToken:     token.AccessToken,
		RefreshToken:    refreshToken,
		TokenExpiry:     token.Expiry.UTC(),
		Scopes:          scopes,
	})
	if err != nil {
		return models.CalendarConnection{}, fmt.Errorf("saving connection: %w", err)
	}

	calendars, err := service.provider.ListCalendars(ctx, token)
	if err != nil {
		return models.CalendarConnection{}, fmt.Errorf("listing calendars: %w", err)
	}

	subscriptions := make([]models.CalendarSubscription, 0, len(calendars))
	for _, cal := range calendars {
		subscriptions = append(subscriptions, models.CalendarSubscription{
			ConnectionID:     connection.ID,
			GoogleCalendarID: cal.ID,
			Name:             cal.Name,
			Color:            cal.Color,
			Visibility:       models.VisibilityFamily,
			Active:           cal.Primary,
		})
	}

	if err := service.subscriptionRepo.ReplaceForConnection(ctx, connection.ID, subscriptions); err != nil {
		return models.CalendarConnection{}, fmt.Errorf("seeding subscriptions: %w", err)
	}

	return connection, nil
}

func (service *ConnectService) Disconnect(ctx context.Context, memberID string) error {
	if err := service.connectionRepo.DeleteByMemberID(ctx, memberID); err != nil {
		return fmt.Errorf("disconnecting calendar: %w", err)
	}
	return nil
}
