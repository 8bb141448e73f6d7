package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/smolfy/internal/models"
	"github.com/desertthunder/smolfy/internal/player"
	"github.com/desertthunder/smolfy/internal/shared"
	"github.com/desertthunder/smolfy/internal/spotify"
)

// fakeGateway scripts Gateway responses and records the calls it receives.
type fakeGateway struct {
	devices    []spotify.Device
	devicesErr error

	playErr       error
	playCalls     []string
	playRequests  []*spotify.PlayRequest
	transferErr   error
	transferCalls []struct {
		DeviceID string
		Play     bool
	}

	profile *spotify.User
	history []spotify.PlayHistory
	state   *spotify.PlayerState
	saved   []bool
	err     error

	volumePercents []int
	repeatStates   []string
	shuffleStates  []bool
	savedTrackIDs  []string
	removedIDs     []string
	searchQueries  []string
}

func (f *fakeGateway) Profile(ctx context.Context) (*spotify.User, error) {
	return f.profile, f.err
}

func (f *fakeGateway) Playlists(ctx context.Context, limit int) ([]spotify.SimplePlaylist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []spotify.SimplePlaylist{{ID: "pl1", Name: "Morning"}}, nil
}

func (f *fakeGateway) PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.PlaylistTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []spotify.PlaylistTrack{{Track: spotify.Track{Name: "Song"}}}, nil
}

func (f *fakeGateway) SavedTracks(ctx context.Context, limit int) ([]spotify.SavedTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []spotify.SavedTrack{{Track: spotify.Track{Name: "Liked"}}}, nil
}

func (f *fakeGateway) SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error) {
	f.searchQueries = append(f.searchQueries, query)
	if f.err != nil {
		return nil, f.err
	}
	return []spotify.Track{{Name: "Found"}}, nil
}

func (f *fakeGateway) RecentlyPlayed(ctx context.Context, limit int) ([]spotify.PlayHistory, error) {
	return f.history, f.err
}

func (f *fakeGateway) PlayerState(ctx context.Context) (*spotify.PlayerState, error) {
	return f.state, f.err
}

func (f *fakeGateway) Devices(ctx context.Context) ([]spotify.Device, error) {
	return f.devices, f.devicesErr
}

func (f *fakeGateway) Play(ctx context.Context, deviceID string, req *spotify.PlayRequest) error {
	f.playCalls = append(f.playCalls, deviceID)
	f.playRequests = append(f.playRequests, req)
	return f.playErr
}

func (f *fakeGateway) Transfer(ctx context.Context, deviceID string, play bool) error {
	f.transferCalls = append(f.transferCalls, struct {
		DeviceID string
		Play     bool
	}{deviceID, play})
	return f.transferErr
}

func (f *fakeGateway) Next(ctx context.Context) error     { return f.err }
func (f *fakeGateway) Previous(ctx context.Context) error { return f.err }

func (f *fakeGateway) SetShuffle(ctx context.Context, state bool) error {
	f.shuffleStates = append(f.shuffleStates, state)
	return f.err
}

func (f *fakeGateway) SetRepeat(ctx context.Context, state string) error {
	f.repeatStates = append(f.repeatStates, state)
	return f.err
}

func (f *fakeGateway) SetVolume(ctx context.Context, percent int) error {
	f.volumePercents = append(f.volumePercents, percent)
	return f.err
}

func (f *fakeGateway) ContainsTracks(ctx context.Context, trackIDs ...string) ([]bool, error) {
	return f.saved, f.err
}

func (f *fakeGateway) SaveTrack(ctx context.Context, trackID string) error {
	f.savedTrackIDs = append(f.savedTrackIDs, trackID)
	return f.err
}

func (f *fakeGateway) RemoveTrack(ctx context.Context, trackID string) error {
	f.removedIDs = append(f.removedIDs, trackID)
	return f.err
}

// fakeEmbedded scripts the embedded player proxy.
type fakeEmbedded struct {
	deviceID string
	known    bool
	resp     player.Response
	sent     []player.Command
}

func (f *fakeEmbedded) Send(ctx context.Context, cmd player.Command) player.Response {
	f.sent = append(f.sent, cmd)
	return f.resp
}

func (f *fakeEmbedded) DeviceID() (string, bool) {
	return f.deviceID, f.known
}

// fakeAuth scripts the login flow.
type fakeAuth struct {
	rec *models.TokenRecord
	err error
}

func (f *fakeAuth) Authenticate(ctx context.Context, interactive bool) (*models.TokenRecord, error) {
	return f.rec, f.err
}

// fakeTokenStore scripts token state.
type fakeTokenStore struct {
	rec      *models.TokenRecord
	clearErr error
	cleared  int
}

func (f *fakeTokenStore) Get() *models.TokenRecord { return f.rec }

func (f *fakeTokenStore) Clear() error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.rec = nil
	f.cleared++
	return nil
}

type routerFixture struct {
	api      *fakeGateway
	embedded *fakeEmbedded
	auth     *fakeAuth
	tokens   *fakeTokenStore
	router   *Router
}

func newFixture() *routerFixture {
	f := &routerFixture{
		api:      &fakeGateway{},
		embedded: &fakeEmbedded{resp: player.Response{Success: true}},
		auth:     &fakeAuth{rec: &models.TokenRecord{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}},
		tokens:   &fakeTokenStore{},
	}
	f.router = New(f.api, f.embedded, f.auth, f.tokens, shared.NewLogger(io.Discard))
	return f
}

func (f *routerFixture) dispatch(cmd Command) Response {
	return f.router.Dispatch(context.Background(), cmd)
}

func TestDispatchAuth(t *testing.T) {
	t.Run("login returns the token", func(t *testing.T) {
		f := newFixture()
		resp := f.dispatch(Command{Type: KindLogin})
		if !resp.Success || resp.Token != "tok" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("login failure becomes an envelope", func(t *testing.T) {
		f := newFixture()
		f.auth.rec = nil
		f.auth.err = fmt.Errorf("%w: access_denied", shared.ErrAuthorizationDenied)

		resp := f.dispatch(Command{Type: KindLogin})
		if resp.Success || !strings.Contains(resp.Error, "access_denied") {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("auth status reflects the token store", func(t *testing.T) {
		f := newFixture()
		resp := f.dispatch(Command{Type: KindGetAuthStatus})
		if !resp.Success || resp.IsAuthenticated == nil || *resp.IsAuthenticated {
			t.Errorf("expected unauthenticated, got %+v", resp)
		}

		f.tokens.rec = &models.TokenRecord{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}
		resp = f.dispatch(Command{Type: KindGetAuthStatus})
		if resp.IsAuthenticated == nil || !*resp.IsAuthenticated {
			t.Errorf("expected authenticated, got %+v", resp)
		}
	})

	t.Run("logout disconnects a known embedded player before clearing", func(t *testing.T) {
		f := newFixture()
		f.embedded.deviceID = "E"
		f.embedded.known = true
		f.tokens.rec = &models.TokenRecord{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}

		resp := f.dispatch(Command{Type: KindLogout})
		if !resp.Success {
			t.Fatalf("unexpected response %+v", resp)
		}
		if len(f.embedded.sent) != 1 || f.embedded.sent[0].Type != player.CmdDisconnect {
			t.Errorf("expected one disconnect, got %v", f.embedded.sent)
		}
		if f.tokens.cleared != 1 {
			t.Errorf("expected token clear, got %d", f.tokens.cleared)
		}
	})

	t.Run("logout skips disconnect when no device is known", func(t *testing.T) {
		f := newFixture()
		resp := f.dispatch(Command{Type: KindLogout})
		if !resp.Success || len(f.embedded.sent) != 0 {
			t.Errorf("unexpected response %+v sends %v", resp, f.embedded.sent)
		}
	})
}

func TestDispatchValidation(t *testing.T) {
	cases := []struct {
		name string
		cmd  Command
		want string
	}{
		{"playlist tracks need an id", Command{Type: KindGetTracks}, "playlist ID required"},
		{"search needs a query", Command{Type: KindSearchTracks, Query: "   "}, "search query cannot be empty"},
		{"shuffle needs a boolean", Command{Type: KindSetShuffle}, "boolean shuffleState required"},
		{"repeat rejects unknown modes", Command{Type: KindSetRepeat, RepeatState: "loop"}, "repeatState must be"},
		{"volume needs a level", Command{Type: KindSetVolume}, "volumeLevel must be"},
		{"like needs a track id", Command{Type: KindLikeTrack}, "track ID required"},
		{"unlike needs a track id", Command{Type: KindUnlikeTrack}, "track ID required"},
		{"check needs a track id", Command{Type: KindCheckTrackLiked}, "track ID required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			resp := f.dispatch(tc.cmd)
			if resp.Success || !strings.Contains(resp.Error, tc.want) {
				t.Errorf("expected validation failure %q, got %+v", tc.want, resp)
			}
		})
	}

	t.Run("volume rejects out-of-range levels", func(t *testing.T) {
		f := newFixture()
		for _, level := range []float64{-0.1, 1.1} {
			level := level
			if resp := f.dispatch(Command{Type: KindSetVolume, VolumeLevel: &level}); resp.Success {
				t.Errorf("expected rejection of level %v", level)
			}
		}
	})

	t.Run("unknown kinds produce an explicit failure", func(t *testing.T) {
		f := newFixture()
		resp := f.dispatch(Command{Type: "REWIND_TAPE"})
		if resp.Success || resp.Error != "Unknown message type: REWIND_TAPE" {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestDispatchRemoteCommands(t *testing.T) {
	t.Run("volume converts the level to a rounded percent", func(t *testing.T) {
		f := newFixture()
		level := 0.555
		resp := f.dispatch(Command{Type: KindSetVolume, VolumeLevel: &level})
		if !resp.Success {
			t.Fatalf("unexpected response %+v", resp)
		}
		if len(f.api.volumePercents) != 1 || f.api.volumePercents[0] != 56 {
			t.Errorf("expected percent 56, got %v", f.api.volumePercents)
		}
	})

	t.Run("repeat forwards valid modes", func(t *testing.T) {
		f := newFixture()
		for _, mode := range []string{"track", "context", "off"} {
			if resp := f.dispatch(Command{Type: KindSetRepeat, RepeatState: mode}); !resp.Success {
				t.Errorf("mode %s: unexpected response %+v", mode, resp)
			}
		}
		if len(f.api.repeatStates) != 3 {
			t.Errorf("expected three repeat calls, got %v", f.api.repeatStates)
		}
	})

	t.Run("pause goes to the embedded player", func(t *testing.T) {
		f := newFixture()
		resp := f.dispatch(Command{Type: KindPause})
		if !resp.Success {
			t.Fatalf("unexpected response %+v", resp)
		}
		if len(f.api.playCalls) != 0 {
			t.Error("pause must not touch the remote API")
		}
		if len(f.embedded.sent) != 1 || f.embedded.sent[0].Type != player.CmdPause {
			t.Errorf("expected embedded pause, got %v", f.embedded.sent)
		}
	})

	t.Run("check liked reports the first membership flag", func(t *testing.T) {
		f := newFixture()
		f.api.saved = []bool{true}

		resp := f.dispatch(Command{Type: KindCheckTrackLiked, TrackID: "t1"})
		if !resp.Success || resp.IsLiked == nil || !*resp.IsLiked {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("recently played fails on an empty history", func(t *testing.T) {
		f := newFixture()
		resp := f.dispatch(Command{Type: KindRecentlyPlayed})
		if resp.Success || !strings.Contains(resp.Error, "no recently played tracks found") {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("player state treats no active device as empty", func(t *testing.T) {
		f := newFixture()
		f.api.err = fmt.Errorf("%w: No active device found", shared.ErrAPIRequest)

		resp := f.dispatch(Command{Type: KindGetPlayerState})
		if !resp.Success || resp.State != nil {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestDispatchPlay(t *testing.T) {
	t.Run("prefers the embedded device when listed", func(t *testing.T) {
		f := newFixture()
		f.embedded.deviceID = "E"
		f.embedded.known = true
		f.api.devices = []spotify.Device{
			{ID: "A", IsActive: true},
			{ID: "E"},
		}

		resp := f.dispatch(Command{Type: KindPlay})
		if !resp.Success {
			t.Fatalf("unexpected response %+v", resp)
		}
		if f.api.playCalls[0] != "E" {
			t.Errorf("expected play on E, got %v", f.api.playCalls)
		}
	})

	t.Run("falls back to the active device", func(t *testing.T) {
		f := newFixture()
		f.api.devices = []spotify.Device{
			{ID: "A"},
			{ID: "B", IsActive: true},
		}

		f.dispatch(Command{Type: KindPlay})
		if f.api.playCalls[0] != "B" {
			t.Errorf("expected play on B, got %v", f.api.playCalls)
		}
	})

	t.Run("targets an unlisted embedded device before other fallbacks", func(t *testing.T) {
		f := newFixture()
		f.embedded.deviceID = "E"
		f.embedded.known = true
		f.api.devices = []spotify.Device{{ID: "A"}}

		f.dispatch(Command{Type: KindPlay})
		if f.api.playCalls[0] != "E" {
			t.Errorf("expected play on E, got %v", f.api.playCalls)
		}
	})

	t.Run("uses the first listed device as last resort", func(t *testing.T) {
		f := newFixture()
		f.api.devices = []spotify.Device{{ID: "A"}, {ID: "B"}}

		f.dispatch(Command{Type: KindPlay})
		if f.api.playCalls[0] != "A" {
			t.Errorf("expected play on A, got %v", f.api.playCalls)
		}
	})

	t.Run("fails when no device exists anywhere", func(t *testing.T) {
		f := newFixture()
		resp := f.dispatch(Command{Type: KindPlay})
		if resp.Success || !strings.Contains(resp.Error, "please start Spotify on another device") {
			t.Errorf("unexpected response %+v", resp)
		}
		if len(f.api.playCalls) != 0 {
			t.Error("no play call should be issued without a device")
		}
	})

	t.Run("builds a context body with a uri offset", func(t *testing.T) {
		f := newFixture()
		f.api.devices = []spotify.Device{{ID: "A", IsActive: true}}

		f.dispatch(Command{
			Type:       KindPlay,
			ContextURI: "spotify:playlist:pl1",
			Offset:     &Offset{URI: "spotify:track:t5"},
		})

		req := f.api.playRequests[0]
		if req.ContextURI != "spotify:playlist:pl1" || req.Offset == nil || req.Offset.URI != "spotify:track:t5" {
			t.Errorf("unexpected play request %+v", req)
		}
	})

	t.Run("builds a track list body with a position offset", func(t *testing.T) {
		f := newFixture()
		f.api.devices = []spotify.Device{{ID: "A", IsActive: true}}
		position := 2

		f.dispatch(Command{
			Type:      KindPlay,
			TrackURIs: []string{"spotify:track:t1", "spotify:track:t2", "spotify:track:t3"},
			Offset:    &Offset{Position: &position},
		})

		req := f.api.playRequests[0]
		if len(req.URIs) != 3 || req.Offset == nil || req.Offset.Position == nil || *req.Offset.Position != 2 {
			t.Errorf("unexpected play request %+v", req)
		}
	})

	t.Run("transfers to the embedded player when no device is active", func(t *testing.T) {
		f := newFixture()
		f.embedded.deviceID = "E"
		f.embedded.known = true
		f.api.devices = []spotify.Device{{ID: "E"}}
		f.api.playErr = fmt.Errorf("%w: No active device found", shared.ErrAPIRequest)

		resp := f.dispatch(Command{Type: KindPlay})
		if resp.Success || !resp.NeedsRetry {
			t.Fatalf("expected retry envelope, got %+v", resp)
		}
		if !strings.Contains(resp.Error, "press play again") {
			t.Errorf("unexpected error %q", resp.Error)
		}

		if len(f.api.transferCalls) != 1 {
			t.Fatalf("expected one transfer, got %v", f.api.transferCalls)
		}
		if call := f.api.transferCalls[0]; call.DeviceID != "E" || call.Play {
			t.Errorf("expected transfer to E without autoplay, got %+v", call)
		}
	})

	t.Run("reports both failures when the transfer also fails", func(t *testing.T) {
		f := newFixture()
		f.embedded.deviceID = "E"
		f.embedded.known = true
		f.api.devices = []spotify.Device{{ID: "E"}}
		f.api.playErr = fmt.Errorf("%w: No active device found", shared.ErrAPIRequest)
		f.api.transferErr = errors.New("transfer rejected")

		resp := f.dispatch(Command{Type: KindPlay})
		if resp.Success || resp.NeedsRetry {
			t.Fatalf("expected plain failure, got %+v", resp)
		}
		if !strings.Contains(resp.Error, "transfer attempt failed") {
			t.Errorf("unexpected error %q", resp.Error)
		}
	})

	t.Run("does not transfer without an embedded device", func(t *testing.T) {
		f := newFixture()
		f.api.devices = []spotify.Device{{ID: "A", IsActive: true}}
		f.api.playErr = fmt.Errorf("%w: No active device found", shared.ErrAPIRequest)

		resp := f.dispatch(Command{Type: KindPlay})
		if resp.Success || resp.NeedsRetry {
			t.Fatalf("expected plain failure, got %+v", resp)
		}
		if len(f.api.transferCalls) != 0 {
			t.Errorf("unexpected transfer %v", f.api.transferCalls)
		}
	})
}
