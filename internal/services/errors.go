package services

import "errors"

var (
	// ErrInvalidState is a CSRF nonce mismatch on an OAuth callback. Fatal,
	// no connection is made.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrNotConnected means the member has no Google Calendar connection.
	ErrNotConnected = errors.New("no Google Calendar connected")

	// ErrAuthExpired means the access token is expired and no refresh token
	// exists; the member has to reconnect.
	ErrAuthExpired = errors.New("token expired")
)
