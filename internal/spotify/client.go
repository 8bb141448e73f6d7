// package spotify implements the authenticated gateway to the Spotify Web API.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/models"
	"github.com/desertthunder/smolfy/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// TokenSource supplies and invalidates the bearer token for API calls.
//
// Implemented by auth.Store.
type TokenSource interface {
	Get() *models.TokenRecord
	Clear() error
}

// Client issues single authenticated round trips to the Spotify Web API and
// classifies the responses. It performs no retries and no token refresh; a
// 401 invalidates the token store and surfaces as an expiry error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOpts configures a Client.
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *log.Logger
	// RPS caps outgoing request rate; defaults to 10/s with matching burst.
	RPS float64
}

// NewClient creates a gateway client for the Spotify Web API.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RPS <= 0 {
		opts.RPS = 10
	}

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), int(opts.RPS)),
		logger:     opts.Logger,
	}
}

// Call performs one authenticated round trip.
//
// Mutating methods (POST/PUT/DELETE) return a nil payload on any 2xx without
// touching the body. Read methods return the raw JSON payload, or nil when
// the body is empty or unparseable (no data rather than an error).
func (c *Client) Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	rec := c.tokens.Get()
	if rec == nil {
		return nil, fmt.Errorf("%w: no valid token available", shared.ErrNotAuthenticated)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api call", "method", method, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info("401 received, clearing token")
		if err := c.tokens.Clear(); err != nil {
			c.logger.Warnf("failed to clear token after 401: %v", err)
		}
		return nil, fmt.Errorf("%w: unauthorized", shared.ErrTokenExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail apiError
		if json.Unmarshal(raw, &detail) == nil && detail.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, detail.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	// Commands (POST/PUT/DELETE) often answer 200/204 with no body; success
	// needs no parse.
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete {
		return nil, nil
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		c.logger.Warn("unparseable response body treated as no data", "endpoint", endpoint)
		return nil, nil
	}

	return json.RawMessage(raw), nil
}

// get decodes a read response into out; a nil payload leaves out untouched
// and reports false.
func (c *Client) get(ctx context.Context, endpoint string, out any) (bool, error) {
	raw, err := c.Call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return true, nil
}

// IsNoActiveDevice reports whether an API error is the provider's
// "no active device" condition.
func IsNoActiveDevice(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no active device")
}

// Profile retrieves the current authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlists retrieves the current user's playlists (first page, up to 50).
func (c *Client) Playlists(ctx context.Context, limit int) ([]SimplePlaylist, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var page PaginatedPlaylists
	if _, err := c.get(ctx, fmt.Sprintf("/me/playlists?limit=%d", limit), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// PlaylistTracks retrieves up to 100 tracks of a playlist, restricted to the
// fields the caller renders.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	fields := url.QueryEscape("items(track(name,uri,artists(name),album(name)))")
	endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=%s&limit=100", playlistID, fields)

	var page PaginatedPlaylistTracks
	if _, err := c.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SavedTracks retrieves the user's saved tracks (first page).
func (c *Client) SavedTracks(ctx context.Context, limit int) ([]SavedTrack, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var page PaginatedTracks
	if _, err := c.get(ctx, fmt.Sprintf("/me/tracks?limit=%d", limit), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var result searchResult
	if _, err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result.Tracks.Items, nil
}

// RecentlyPlayed retrieves the user's play history, most recent first.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]PlayHistory, error) {
	if limit <= 0 {
		limit = 1
	}

	var page playHistoryPage
	if _, err := c.get(ctx, fmt.Sprintf("/me/player/recently-played?limit=%d", limit), &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// PlayerState retrieves the current playback state, or nil when no player is
// active (the API answers 204 No Content).
func (c *Client) PlayerState(ctx context.Context) (*PlayerState, error) {
	var state PlayerState
	ok, err := c.get(ctx, "/me/player", &state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// Devices retrieves the devices known to the remote service.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var list deviceList
	if _, err := c.get(ctx, "/me/player/devices", &list); err != nil {
		return nil, err
	}
	return list.Devices, nil
}

// Play starts or resumes playback on the given device. A zero-valued request
// body resumes whatever was playing.
func (c *Client) Play(ctx context.Context, deviceID string, req *PlayRequest) error {
	if req == nil {
		req = &PlayRequest{}
	}
	endpoint := fmt.Sprintf("/me/player/play?device_id=%s", url.QueryEscape(deviceID))
	_, err := c.Call(ctx, http.MethodPut, endpoint, req)
	return err
}

// Transfer moves playback to the given device, optionally starting playback.
func (c *Client) Transfer(ctx context.Context, deviceID string, play bool) error {
	_, err := c.Call(ctx, http.MethodPut, "/me/player", &transferRequest{DeviceIDs: []string{deviceID}, Play: play})
	return err
}

// Next skips to the next track on the active device.
func (c *Client) Next(ctx context.Context) error {
	_, err := c.Call(ctx, http.MethodPost, "/me/player/next", nil)
	return err
}

// Previous skips to the previous track on the active device.
func (c *Client) Previous(ctx context.Context) error {
	_, err := c.Call(ctx, http.MethodPost, "/me/player/previous", nil)
	return err
}

// SetShuffle toggles shuffle on the active device.
func (c *Client) SetShuffle(ctx context.Context, state bool) error {
	_, err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/me/player/shuffle?state=%t", state), nil)
	return err
}

// SetRepeat sets the repeat mode (track, context, or off).
func (c *Client) SetRepeat(ctx context.Context, state string) error {
	_, err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/me/player/repeat?state=%s", url.QueryEscape(state)), nil)
	return err
}

// SetVolume sets the active device volume as an integer percentage.
func (c *Client) SetVolume(ctx context.Context, percent int) error {
	_, err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/me/player/volume?volume_percent=%d", percent), nil)
	return err
}

// ContainsTracks reports, per ID, whether each track is saved in the library.
func (c *Client) ContainsTracks(ctx context.Context, trackIDs ...string) ([]bool, error) {
	ids := url.QueryEscape(strings.Join(trackIDs, ","))

	var saved []bool
	if _, err := c.get(ctx, fmt.Sprintf("/me/tracks/contains?ids=%s", ids), &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// SaveTrack adds a track to the user's library.
func (c *Client) SaveTrack(ctx context.Context, trackID string) error {
	_, err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/me/tracks?ids=%s", url.QueryEscape(trackID)), nil)
	return err
}

// RemoveTrack removes a track from the user's library.
func (c *Client) RemoveTrack(ctx context.Context, trackID string) error {
	_, err := c.Call(ctx, http.MethodDelete, fmt.Sprintf("/me/tracks?ids=%s", url.QueryEscape(trackID)), nil)
	return err
}
