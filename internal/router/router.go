package router

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/models"
	"github.com/desertthunder/smolfy/internal/player"
	"github.com/desertthunder/smolfy/internal/shared"
	"github.com/desertthunder/smolfy/internal/spotify"
)

// Gateway is the slice of the Spotify API client the router dispatches to.
type Gateway interface {
	Profile(ctx context.Context) (*spotify.User, error)
	Playlists(ctx context.Context, limit int) ([]spotify.SimplePlaylist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.PlaylistTrack, error)
	SavedTracks(ctx context.Context, limit int) ([]spotify.SavedTrack, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]spotify.PlayHistory, error)
	PlayerState(ctx context.Context) (*spotify.PlayerState, error)
	Devices(ctx context.Context) ([]spotify.Device, error)
	Play(ctx context.Context, deviceID string, req *spotify.PlayRequest) error
	Transfer(ctx context.Context, deviceID string, play bool) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SetShuffle(ctx context.Context, state bool) error
	SetRepeat(ctx context.Context, state string) error
	SetVolume(ctx context.Context, percent int) error
	ContainsTracks(ctx context.Context, trackIDs ...string) ([]bool, error)
	SaveTrack(ctx context.Context, trackID string) error
	RemoveTrack(ctx context.Context, trackID string) error
}

// EmbeddedPlayer is the slice of the player proxy the router depends on.
type EmbeddedPlayer interface {
	Send(ctx context.Context, cmd player.Command) player.Response
	DeviceID() (string, bool)
}

// Authenticator drives the interactive login flow.
type Authenticator interface {
	Authenticate(ctx context.Context, interactive bool) (*models.TokenRecord, error)
}

// TokenStore is the slice of the token store the router reads and clears.
type TokenStore interface {
	Get() *models.TokenRecord
	Clear() error
}

// Router is the command decision engine: it validates incoming commands and
// routes them to the API gateway or the embedded player proxy.
type Router struct {
	api    Gateway
	player EmbeddedPlayer
	auth   Authenticator
	tokens TokenStore
	logger *log.Logger
}

// New creates a command router.
func New(api Gateway, embedded EmbeddedPlayer, auth Authenticator, tokens TokenStore, logger *log.Logger) *Router {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Router{api: api, player: embedded, auth: auth, tokens: tokens, logger: logger}
}

// Dispatch routes one command and returns its result envelope. Unknown kinds
// produce an explicit failure envelope; no error or panic crosses this
// boundary.
func (r *Router) Dispatch(ctx context.Context, cmd Command) Response {
	r.logger.Debug("dispatching command", "type", cmd.Type)

	switch cmd.Type {
	case KindLogin:
		return r.handleLogin(ctx)
	case KindLogout:
		return r.handleLogout(ctx)
	case KindGetAuthStatus:
		authed := r.tokens.Get() != nil
		return Response{Success: true, IsAuthenticated: &authed}
	case KindGetUserProfile:
		return r.handleProfile(ctx)
	case KindGetPlaylists:
		return r.handlePlaylists(ctx)
	case KindGetTracks:
		return r.handlePlaylistTracks(ctx, cmd)
	case KindGetLikedSongs:
		return r.handleLikedSongs(ctx)
	case KindSearchTracks:
		return r.handleSearch(ctx, cmd)
	case KindRecentlyPlayed:
		return r.handleRecentlyPlayed(ctx)
	case KindGetPlayerState:
		return r.handlePlayerState(ctx)
	case KindPlay:
		return r.handlePlay(ctx, cmd)
	case KindPause:
		resp := r.player.Send(ctx, player.Command{Type: player.CmdPause})
		return Response{Success: resp.Success, Error: resp.Error}
	case KindNextTrack:
		return commandResult(r.api.Next(ctx))
	case KindPreviousTrack:
		return commandResult(r.api.Previous(ctx))
	case KindSetShuffle:
		if cmd.ShuffleState == nil {
			return fail("boolean shuffleState required")
		}
		return commandResult(r.api.SetShuffle(ctx, *cmd.ShuffleState))
	case KindSetRepeat:
		if cmd.RepeatState != "track" && cmd.RepeatState != "context" && cmd.RepeatState != "off" {
			return fail("repeatState must be track, context, or off")
		}
		return commandResult(r.api.SetRepeat(ctx, cmd.RepeatState))
	case KindSetVolume:
		if cmd.VolumeLevel == nil || *cmd.VolumeLevel < 0 || *cmd.VolumeLevel > 1 {
			return fail("volumeLevel must be between 0.0 and 1.0")
		}
		percent := int(math.Round(*cmd.VolumeLevel * 100))
		return commandResult(r.api.SetVolume(ctx, percent))
	case KindCheckTrackLiked:
		return r.handleCheckLiked(ctx, cmd)
	case KindLikeTrack:
		if cmd.TrackID == "" {
			return fail("track ID required")
		}
		return commandResult(r.api.SaveTrack(ctx, cmd.TrackID))
	case KindUnlikeTrack:
		if cmd.TrackID == "" {
			return fail("track ID required")
		}
		return commandResult(r.api.RemoveTrack(ctx, cmd.TrackID))
	default:
		r.logger.Warn("unhandled command", "type", cmd.Type)
		return fail("Unknown message type: %s", cmd.Type)
	}
}

func commandResult(err error) Response {
	if err != nil {
		return failErr(err)
	}
	return ok()
}

func (r *Router) handleLogin(ctx context.Context) Response {
	rec, err := r.auth.Authenticate(ctx, true)
	if err != nil {
		return failErr(err)
	}
	return Response{Success: true, Token: rec.AccessToken}
}

func (r *Router) handleLogout(ctx context.Context) Response {
	// Disconnect the embedded player first so it stops holding a device
	// registration under the cleared credentials.
	if _, known := r.player.DeviceID(); known {
		if resp := r.player.Send(ctx, player.Command{Type: player.CmdDisconnect}); !resp.Success {
			r.logger.Warnf("embedded player disconnect failed: %s", resp.Error)
		}
	}

	if err := r.tokens.Clear(); err != nil {
		return fail("failed to clear stored tokens")
	}
	return ok()
}

func (r *Router) handleProfile(ctx context.Context) Response {
	profile, err := r.api.Profile(ctx)
	if err != nil {
		return failErr(err)
	}
	return Response{Success: true, Profile: profile}
}

func (r *Router) handlePlaylists(ctx context.Context) Response {
	playlists, err := r.api.Playlists(ctx, 50)
	if err != nil {
		return failErr(err)
	}
	return Response{Success: true, Playlists: playlists}
}

func (r *Router) handlePlaylistTracks(ctx context.Context, cmd Command) Response {
	if cmd.PlaylistID == "" {
		return fail("playlist ID required")
	}

	tracks, err := r.api.PlaylistTracks(ctx, cmd.PlaylistID)
	if err != nil {
		return failErr(err)
	}
	return Response{Success: true, Tracks: tracks}
}

func (r *Router) handleLikedSongs(ctx context.Context) Response {
	tracks, err := r.api.SavedTracks(ctx, 50)
	if err != nil {
		return failErr(err)
	}
	return Response{Success: true, Tracks: tracks}
}

func (r *Router) handleSearch(ctx context.Context, cmd Command) Response {
	if strings.TrimSpace(cmd.Query) == "" {
		return fail("search query cannot be empty")
	}

	tracks, err := r.api.SearchTracks(ctx, cmd.Query, 20)
	if err != nil {
		return failErr(err)
	}
	return Response{Success: true, Tracks: tracks}
}

func (r *Router) handleRecentlyPlayed(ctx context.Context) Response {
	history, err := r.api.RecentlyPlayed(ctx, 1)
	if err != nil {
		return failErr(err)
	}
	if len(history) == 0 || history[0].Track.Name == "" {
		return fail("no recently played tracks found")
	}

	track := history[0].Track
	return Response{Success: true, Track: &track}
}

func (r *Router) handlePlayerState(ctx context.Context) Response {
	state, err := r.api.PlayerState(ctx)
	if err != nil {
		// No active device is an empty state, not a failure.
		if spotify.IsNoActiveDevice(err) {
			return Response{Success: true, State: nil}
		}
		return failErr(err)
	}
	return Response{Success: true, State: state}
}

// handlePlay is the core routing transition: pick a target device, issue the
// play call, and recover once via transfer when no device is active.
func (r *Router) handlePlay(ctx context.Context, cmd Command) Response {
	devices, err := r.api.Devices(ctx)
	if err != nil {
		return failErr(err)
	}

	embeddedID, hasEmbedded := r.player.DeviceID()
	target, err := pickDevice(devices, embeddedID, hasEmbedded)
	if err != nil {
		return failErr(err)
	}

	req := buildPlayRequest(cmd)

	r.logger.Debug("issuing play", "device_id", target)
	playErr := r.api.Play(ctx, target, req)
	if playErr == nil {
		return ok()
	}

	if spotify.IsNoActiveDevice(playErr) && hasEmbedded {
		r.logger.Warn("play failed with no active device, transferring to embedded player", "device_id", embeddedID)
		if terr := r.api.Transfer(ctx, embeddedID, false); terr != nil {
			return fail("play failed: %v (transfer attempt failed: %v)", playErr, terr)
		}
		return Response{
			Success:    false,
			NeedsRetry: true,
			Error:      "playback transferred to the embedded player, please press play again",
		}
	}

	return failErr(playErr)
}

// pickDevice applies the selection priority: embedded device when listed, the
// remotely active device, the embedded device even unlisted (assumed
// transferable), then the first listed device.
func pickDevice(devices []spotify.Device, embeddedID string, hasEmbedded bool) (string, error) {
	if hasEmbedded {
		for _, d := range devices {
			if d.ID == embeddedID {
				return embeddedID, nil
			}
		}
	}

	for _, d := range devices {
		if d.IsActive {
			return d.ID, nil
		}
	}

	if hasEmbedded {
		return embeddedID, nil
	}

	if len(devices) > 0 {
		return devices[0].ID, nil
	}

	return "", fmt.Errorf("%w: please start Spotify on another device", shared.ErrNoDevice)
}

// buildPlayRequest maps command fields onto the play body: a context URI with
// an optional by-URI offset, an explicit track list with an optional
// by-position offset, or the empty body that resume semantics require.
func buildPlayRequest(cmd Command) *spotify.PlayRequest {
	req := &spotify.PlayRequest{}

	switch {
	case cmd.ContextURI != "":
		req.ContextURI = cmd.ContextURI
		if cmd.Offset != nil && cmd.Offset.URI != "" {
			req.Offset = &spotify.PlayOffset{URI: cmd.Offset.URI}
		}
	case len(cmd.TrackURIs) > 0:
		req.URIs = cmd.TrackURIs
		if cmd.Offset != nil && cmd.Offset.Position != nil {
			req.Offset = &spotify.PlayOffset{Position: cmd.Offset.Position}
		}
	}

	return req
}

func (r *Router) handleCheckLiked(ctx context.Context, cmd Command) Response {
	if cmd.TrackID == "" {
		return fail("track ID required")
	}

	saved, err := r.api.ContainsTracks(ctx, cmd.TrackID)
	if err != nil {
		return failErr(err)
	}

	isLiked := len(saved) > 0 && saved[0]
	return Response{Success: true, IsLiked: &isLiked}
}
