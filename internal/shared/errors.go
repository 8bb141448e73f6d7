package shared

import "fmt"

var (
	// Configuration errors
	ErrConfig        = fmt.Errorf("configuration error")
	ErrMissingConfig = fmt.Errorf("configuration not found")

	// Auth flow errors
	ErrAuthorizationDenied = fmt.Errorf("authorization denied")
	ErrProtocol            = fmt.Errorf("protocol error")
	ErrState               = fmt.Errorf("state error")
	ErrTokenExchange       = fmt.Errorf("token exchange failed")
	ErrMalformedResponse   = fmt.Errorf("malformed response")

	// Token lifecycle errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API and transport errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrTransport  = fmt.Errorf("transport failure")

	// Playback errors
	ErrNoDevice = fmt.Errorf("no available playback device")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
