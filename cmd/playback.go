package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/smolfy/internal/router"
	"github.com/desertthunder/smolfy/internal/shared"
	"github.com/urfave/cli/v3"
)

// playbackResult turns a router envelope into CLI output, surfacing the
// retry hint produced when playback is handed to the embedded player.
func (r *Runner) playbackResult(resp router.Response, success string) error {
	if resp.NeedsRetry {
		return r.writePlain("%s\n", resp.Error)
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	return r.writePlain("%s\n", success)
}

// Play starts or resumes playback on the best available device.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	command := router.Command{
		Type:       router.KindPlay,
		ContextURI: cmd.String("context-uri"),
		TrackURIs:  cmd.StringSlice("uri"),
	}

	if offsetURI := cmd.String("offset-uri"); offsetURI != "" {
		command.Offset = &router.Offset{URI: offsetURI}
	} else if cmd.IsSet("offset-position") {
		position := int(cmd.Int("offset-position"))
		command.Offset = &router.Offset{Position: &position}
	}

	resp, err := r.dispatch(ctx, command)
	if err != nil {
		return err
	}
	return r.playbackResult(resp, "Playing")
}

// Pause pauses the embedded player.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindPause})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, "Paused")
}

// Next skips to the next track.
func (r *Runner) Next(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindNextTrack})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, "Skipped to next track")
}

// Previous skips to the previous track.
func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindPreviousTrack})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, "Skipped to previous track")
}

// Shuffle toggles shuffle mode on or off.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	var state bool
	switch cmd.StringArg("state") {
	case "on":
		state = true
	case "off":
		state = false
	default:
		return fmt.Errorf("%w: shuffle state must be on or off", shared.ErrInvalidInput)
	}

	resp, err := r.dispatch(ctx, router.Command{Type: router.KindSetShuffle, ShuffleState: &state})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, fmt.Sprintf("Shuffle %s", cmd.StringArg("state")))
}

// Repeat sets the repeat mode.
func (r *Runner) Repeat(ctx context.Context, cmd *cli.Command) error {
	mode := cmd.StringArg("mode")
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindSetRepeat, RepeatState: mode})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, fmt.Sprintf("Repeat set to %s", mode))
}

// Volume sets the playback volume from a 0.0 to 1.0 level.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	level, err := strconv.ParseFloat(cmd.StringArg("level"), 64)
	if err != nil {
		return fmt.Errorf("%w: volume level must be a number between 0.0 and 1.0", shared.ErrInvalidInput)
	}

	resp, err := r.dispatch(ctx, router.Command{Type: router.KindSetVolume, VolumeLevel: &level})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, fmt.Sprintf("Volume set to %d%%", int(level*100)))
}

// State shows the current player state.
func (r *Runner) State(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindGetPlayerState})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to fetch player state: %s", resp.Error)
	}

	if resp.State == nil {
		return r.writePlain("No active playback\n")
	}
	return r.writeJSON(resp.State, cmd.Bool("pretty"))
}

// Like saves a track to the user's library.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindLikeTrack, TrackID: cmd.StringArg("id")})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, "Track liked")
}

// Unlike removes a track from the user's library.
func (r *Runner) Unlike(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindUnlikeTrack, TrackID: cmd.StringArg("id")})
	if err != nil {
		return err
	}
	return r.playbackResult(resp, "Track unliked")
}

// CheckLiked reports whether a track is saved in the user's library.
func (r *Runner) CheckLiked(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindCheckTrackLiked, TrackID: cmd.StringArg("id")})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("check failed: %s", resp.Error)
	}

	if resp.IsLiked != nil && *resp.IsLiked {
		return r.writePlain("Liked\n")
	}
	return r.writePlain("Not liked\n")
}

// playCommand starts playback
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Start or resume playback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "context-uri",
				Usage: "Context to play (playlist, album, or artist URI)",
			},
			&cli.StringSliceFlag{
				Name:  "uri",
				Usage: "Track URI to play (repeatable)",
			},
			&cli.StringFlag{
				Name:  "offset-uri",
				Usage: "URI of the track to start from within the context",
			},
			&cli.IntFlag{
				Name:  "offset-position",
				Usage: "Zero-based position to start from within the context",
			},
		},
		Action: r.Play,
	}
}

// pauseCommand pauses the embedded player
func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback on the embedded player",
		Action: r.Pause,
	}
}

// nextCommand skips forward
func nextCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "next",
		Usage:  "Skip to the next track",
		Action: r.Next,
	}
}

// previousCommand skips backward
func previousCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "previous",
		Aliases: []string{"prev"},
		Usage:   "Skip to the previous track",
		Action:  r.Previous,
	}
}

// shuffleCommand toggles shuffle
func shuffleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shuffle",
		Usage: "Set shuffle mode (on or off)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "state"},
		},
		Action: r.Shuffle,
	}
}

// repeatCommand sets repeat mode
func repeatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "repeat",
		Usage: "Set repeat mode (track, context, or off)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "mode"},
		},
		Action: r.Repeat,
	}
}

// volumeCommand sets playback volume
func volumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "volume",
		Usage: "Set playback volume (0.0 to 1.0)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "level"},
		},
		Action: r.Volume,
	}
}

// stateCommand shows player state
func stateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Show the current player state",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.State,
	}
}

// trackCommand manages library membership for single tracks
func trackCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "id"}}
	}

	return &cli.Command{
		Name:  "track",
		Usage: "Manage liked state for a track",
		Commands: []*cli.Command{
			{
				Name:      "like",
				Usage:     "Save a track to your library",
				Arguments: idArg(),
				Action:    r.Like,
			},
			{
				Name:      "unlike",
				Usage:     "Remove a track from your library",
				Arguments: idArg(),
				Action:    r.Unlike,
			},
			{
				Name:      "liked",
				Usage:     "Check whether a track is in your library",
				Arguments: idArg(),
				Action:    r.CheckLiked,
			},
		},
	}
}
