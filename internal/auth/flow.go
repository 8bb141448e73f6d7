package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/models"
	"github.com/desertthunder/smolfy/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// flowState tracks the progress of a single authentication attempt.
type flowState int

const (
	stateIdle flowState = iota
	stateVerifierGenerated
	stateRedirectPending
	stateCodeReceived
	stateTokenExchanged
	stateFailed
)

func (s flowState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateVerifierGenerated:
		return "verifier_generated"
	case stateRedirectPending:
		return "redirect_pending"
	case stateCodeReceived:
		return "code_received"
	case stateTokenExchanged:
		return "token_exchanged"
	default:
		return "failed"
	}
}

// LaunchFunc drives the interactive redirect round trip: it presents authURL
// to the user and resolves with the query values of the provider's redirect
// back to redirectURI.
type LaunchFunc func(ctx context.Context, authURL, redirectURI string) (url.Values, error)

// FlowOpts configures a Flow.
type FlowOpts struct {
	Config     shared.SpotifyConfig
	Store      *Store
	Verifiers  *VerifierStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Launch     LaunchFunc

	// Endpoint overrides for tests; defaults are the Spotify accounts service.
	AuthURL  string
	TokenURL string
}

// Flow drives the authorization-code-with-PKCE round trip. Each Authenticate
// call is one attempt, progressing through verifier generation, the redirect,
// code extraction, and the token exchange, with every failure edge deleting
// the ephemeral verifier.
type Flow struct {
	config     shared.SpotifyConfig
	store      *Store
	verifiers  *VerifierStore
	httpClient *http.Client
	logger     *log.Logger
	launch     LaunchFunc
	authURL    string
	tokenURL   string
	state      flowState
}

// NewFlow creates a flow controller from the given options.
func NewFlow(opts FlowOpts) *Flow {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Verifiers == nil {
		opts.Verifiers = NewVerifierStore(DefaultVerifierTTL)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}

	return &Flow{
		config:     opts.Config,
		store:      opts.Store,
		verifiers:  opts.Verifiers,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		launch:     opts.Launch,
		authURL:    opts.AuthURL,
		tokenURL:   opts.TokenURL,
		state:      stateIdle,
	}
}

// AuthCodeURL builds the provider authorization URL with PKCE parameters.
//
// interactive controls show_dialog, which forces the consent screen even for
// previously approved clients.
func (f *Flow) AuthCodeURL(state, challenge string, interactive bool) string {
	conf := &oauth2.Config{
		ClientID:    f.config.ClientID,
		RedirectURL: f.config.RedirectURI,
		Scopes:      f.config.Scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: f.authURL, TokenURL: f.tokenURL},
	}

	return conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("show_dialog", strconv.FormatBool(interactive)),
	)
}

// Authenticate performs one interactive login attempt and stores the
// resulting token. The ephemeral verifier is removed on every exit path.
func (f *Flow) Authenticate(ctx context.Context, interactive bool) (*models.TokenRecord, error) {
	if f.config.ClientID == "" {
		return nil, f.fail(fmt.Errorf("%w: client id not set", shared.ErrConfig))
	}
	if _, err := url.Parse(f.config.RedirectURI); err != nil || f.config.RedirectURI == "" {
		return nil, f.fail(fmt.Errorf("%w: redirect URI unavailable", shared.ErrConfig))
	}
	if f.launch == nil {
		return nil, f.fail(fmt.Errorf("%w: no redirect launcher configured", shared.ErrConfig))
	}

	verifier := GenerateVerifier(DefaultVerifierLength)
	state := shared.GenerateID()
	f.verifiers.Put(state, verifier)
	f.state = stateVerifierGenerated

	authURL := f.AuthCodeURL(state, ChallengeFromVerifier(verifier), interactive)
	f.logger.Debug("launching authorization redirect", "state", state)

	f.state = stateRedirectPending
	vals, err := f.launch(ctx, authURL, f.config.RedirectURI)
	if err != nil {
		f.verifiers.Drop(state)
		return nil, f.fail(fmt.Errorf("%w: authentication failed or cancelled: %v", shared.ErrProtocol, err))
	}

	if errParam := vals.Get("error"); errParam != "" {
		f.verifiers.Drop(state)
		return nil, f.fail(fmt.Errorf("%w: %s", shared.ErrAuthorizationDenied, errParam))
	}

	code := vals.Get("code")
	if code == "" {
		f.verifiers.Drop(state)
		return nil, f.fail(fmt.Errorf("%w: code extraction failed", shared.ErrProtocol))
	}
	f.state = stateCodeReceived

	// The callback echoes our state parameter; a missing verifier means the
	// flow was resumed without its matching attempt.
	storedVerifier, ok := f.verifiers.Take(vals.Get("state"))
	if !ok {
		return nil, f.fail(fmt.Errorf("%w: verifier missing for token exchange", shared.ErrState))
	}

	rec, err := f.exchange(ctx, code, storedVerifier)
	if err != nil {
		return nil, f.fail(err)
	}

	if err := f.store.Set(rec); err != nil {
		return nil, f.fail(err)
	}

	f.state = stateTokenExchanged
	f.logger.Info("token stored", "expiry", rec.Expiry)
	return rec, nil
}

// tokenResponse mirrors the provider's token endpoint body.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// exchange trades the authorization code and verifier for a token record.
func (f *Flow) exchange(ctx context.Context, code, verifier string) (*models.TokenRecord, error) {
	form := url.Values{}
	form.Set("client_id", f.config.ClientID)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", f.config.RedirectURI)
	form.Set("code_verifier", verifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}

	var data tokenResponse
	parseErr := json.Unmarshal(body, &data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		desc := data.ErrorDescription
		if desc == "" {
			desc = strings.TrimSpace(string(body))
		}
		// Discard whatever half-state the failed exchange left behind.
		if f.store != nil {
			f.store.Clear()
		}
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrTokenExchange, resp.StatusCode, desc)
	}

	if parseErr != nil || data.AccessToken == "" || data.ExpiresIn == 0 {
		return nil, fmt.Errorf("%w: invalid token data received", shared.ErrMalformedResponse)
	}

	return &models.TokenRecord{
		AccessToken:  data.AccessToken,
		Expiry:       time.Now().Add(time.Duration(data.ExpiresIn) * time.Second),
		RefreshToken: data.RefreshToken,
	}, nil
}

// fail records which stage the attempt died in before marking it failed.
func (f *Flow) fail(err error) error {
	stage := f.state
	f.state = stateFailed
	f.logger.Warn("authentication attempt failed", "stage", stage.String(), "error", err)
	return err
}
