// package router dispatches typed command messages from UI collaborators to
// the API gateway or the embedded player proxy.
package router

import (
	"fmt"

	"github.com/desertthunder/smolfy/internal/spotify"
)

// Kind discriminates command messages at the router boundary.
type Kind string

const (
	KindLogin           Kind = "LOGIN"
	KindLogout          Kind = "LOGOUT"
	KindGetAuthStatus   Kind = "GET_AUTH_STATUS"
	KindGetUserProfile  Kind = "GET_USER_PROFILE"
	KindGetPlaylists    Kind = "GET_PLAYLISTS"
	KindGetTracks       Kind = "GET_PLAYLIST_TRACKS"
	KindGetLikedSongs   Kind = "GET_LIKED_SONGS"
	KindSearchTracks    Kind = "SEARCH_TRACKS"
	KindRecentlyPlayed  Kind = "GET_RECENTLY_PLAYED"
	KindGetPlayerState  Kind = "GET_PLAYER_STATE"
	KindPlay            Kind = "PLAY"
	KindPause           Kind = "PAUSE"
	KindNextTrack       Kind = "NEXT_TRACK"
	KindPreviousTrack   Kind = "PREVIOUS_TRACK"
	KindSetShuffle      Kind = "SET_SHUFFLE"
	KindSetRepeat       Kind = "SET_REPEAT"
	KindSetVolume       Kind = "SET_VOLUME"
	KindCheckTrackLiked Kind = "CHECK_TRACK_LIKED"
	KindLikeTrack       Kind = "LIKE_TRACK"
	KindUnlikeTrack     Kind = "UNLIKE_TRACK"
)

// Offset selects the starting point for a PLAY command, either by URI within
// a context or by position within an explicit track list.
type Offset struct {
	URI      string `json:"uri,omitempty"`
	Position *int   `json:"position,omitempty"`
}

// Command is the discriminated message envelope at the router boundary.
// Every command is stateless and independently dispatched.
type Command struct {
	Type Kind `json:"type"`

	PlaylistID   string   `json:"playlistId,omitempty"`
	Query        string   `json:"query,omitempty"`
	TrackID      string   `json:"trackId,omitempty"`
	ContextURI   string   `json:"contextUri,omitempty"`
	TrackURIs    []string `json:"trackUris,omitempty"`
	Offset       *Offset  `json:"offset,omitempty"`
	ShuffleState *bool    `json:"shuffleState,omitempty"`
	RepeatState  string   `json:"repeatState,omitempty"`
	VolumeLevel  *float64 `json:"volumeLevel,omitempty"`
}

// Response is the uniform result envelope returned to UI collaborators.
// No error ever crosses the router boundary as anything but this shape.
type Response struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	NeedsRetry bool   `json:"needsRetry,omitempty"`

	Token           string                   `json:"token,omitempty"`
	IsAuthenticated *bool                    `json:"isAuthenticated,omitempty"`
	Profile         *spotify.User            `json:"profile,omitempty"`
	Playlists       []spotify.SimplePlaylist `json:"playlists,omitempty"`
	Tracks          any                      `json:"tracks,omitempty"`
	Track           *spotify.Track           `json:"track,omitempty"`
	State           *spotify.PlayerState     `json:"state,omitempty"`
	IsLiked         *bool                    `json:"isLiked,omitempty"`
}

func ok() Response {
	return Response{Success: true}
}

func fail(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}

func failErr(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
