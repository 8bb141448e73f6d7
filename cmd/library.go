package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/smolfy/internal/formatter"
	"github.com/desertthunder/smolfy/internal/router"
	"github.com/desertthunder/smolfy/internal/shared"
	"github.com/desertthunder/smolfy/internal/spotify"
	"github.com/urfave/cli/v3"
)

// trackList normalizes the track payload variants the router produces
// (playlist entries, saved entries, or plain tracks) into one slice.
func trackList(payload any) ([]spotify.Track, error) {
	switch items := payload.(type) {
	case []spotify.Track:
		return items, nil
	case []spotify.PlaylistTrack:
		tracks := make([]spotify.Track, 0, len(items))
		for _, item := range items {
			tracks = append(tracks, item.Track)
		}
		return tracks, nil
	case []spotify.SavedTrack:
		tracks := make([]spotify.Track, 0, len(items))
		for _, item := range items {
			tracks = append(tracks, item.Track)
		}
		return tracks, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected track payload %T", payload)
	}
}

// writeTracks renders tracks in the requested format (json, csv, or text).
func (r *Runner) writeTracks(tracks []spotify.Track, format string, pretty bool) error {
	switch format {
	case "csv":
		data, err := formatter.TracksToCSV(tracks)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "text":
		return r.writePlain("%s", formatter.TracksToText(tracks))
	default:
		return r.writeJSON(tracks, pretty)
	}
}

// Profile fetches the authenticated user's profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindGetUserProfile})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to fetch profile: %s", resp.Error)
	}

	return r.writeJSON(resp.Profile, cmd.Bool("pretty"))
}

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindGetPlaylists})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to fetch playlists: %s", resp.Error)
	}

	switch cmd.String("format") {
	case "csv":
		data, err := formatter.PlaylistsToCSV(resp.Playlists)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "text":
		return r.writePlain("%s", formatter.PlaylistsToText(resp.Playlists))
	default:
		return r.writeJSON(resp.Playlists, cmd.Bool("pretty"))
	}
}

// Tracks lists the tracks of one playlist.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	resp, err := r.dispatch(ctx, router.Command{Type: router.KindGetTracks, PlaylistID: playlistID})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to fetch playlist tracks: %s", resp.Error)
	}

	tracks, err := trackList(resp.Tracks)
	if err != nil {
		return err
	}
	return r.writeTracks(tracks, cmd.String("format"), cmd.Bool("pretty"))
}

// Liked lists the user's saved tracks.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindGetLikedSongs})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to fetch liked songs: %s", resp.Error)
	}

	tracks, err := trackList(resp.Tracks)
	if err != nil {
		return err
	}
	return r.writeTracks(tracks, cmd.String("format"), cmd.Bool("pretty"))
}

// Search searches the catalog for tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")

	resp, err := r.dispatch(ctx, router.Command{Type: router.KindSearchTracks, Query: query})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("search failed: %s", resp.Error)
	}

	tracks, err := trackList(resp.Tracks)
	if err != nil {
		return err
	}
	return r.writeTracks(tracks, cmd.String("format"), cmd.Bool("pretty"))
}

// Recent shows the most recently played track.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindRecentlyPlayed})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to fetch recently played: %s", resp.Error)
	}

	if cmd.String("format") == "text" && resp.Track != nil {
		return r.writePlain("%s - %s\n", formatter.ArtistNames(*resp.Track), resp.Track.Name)
	}
	return r.writeJSON(resp.Track, cmd.Bool("pretty"))
}

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (json, csv, or text)",
			Value:   "json",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// profileCommand fetches the user profile
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the authenticated user's profile",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Profile,
	}
}

// playlistsCommand lists playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List your playlists",
		Flags:   formatFlags(),
		Action:  r.Playlists,
	}
}

// tracksCommand lists a playlist's tracks
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List the tracks of a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  formatFlags(),
		Action: r.Tracks,
	}
}

// likedCommand lists saved tracks
func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "liked",
		Usage:  "List your liked songs",
		Flags:  formatFlags(),
		Action: r.Liked,
	}
}

// searchCommand searches for tracks
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags:  formatFlags(),
		Action: r.Search,
	}
}

// recentCommand shows the last played track
func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "recent",
		Usage:  "Show the most recently played track",
		Flags:  formatFlags(),
		Action: r.Recent,
	}
}
