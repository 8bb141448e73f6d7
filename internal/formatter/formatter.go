// package formatter renders library listings (playlists, tracks) to CSV and
// plain text for CLI output.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/smolfy/internal/spotify"
)

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ArtistNames joins a track's artist names with commas.
func ArtistNames(track spotify.Track) string {
	names := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// TracksToCSV converts tracks to CSV with columns: ID, Title, Artists, Album, Duration, URI
func TracksToCSV(tracks []spotify.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			ArtistNames(track),
			track.Album.Name,
			FormatDuration(track.DurationMS),
			track.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToText converts tracks to a numbered plain-text listing.
func TracksToText(tracks []spotify.Track) []byte {
	var buf bytes.Buffer

	for i, track := range tracks {
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, ArtistNames(track), track.Name, albumPart, FormatDuration(track.DurationMS)))
	}

	return buf.Bytes()
}

// PlaylistsToCSV converts playlists to CSV with columns: ID, Name, Owner, Tracks, Public, URI
func PlaylistsToCSV(playlists []spotify.SimplePlaylist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Owner", "Tracks", "Public", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pl := range playlists {
		record := []string{
			pl.ID,
			pl.Name,
			pl.Owner.DisplayName,
			strconv.Itoa(pl.Tracks.Total),
			strconv.FormatBool(pl.Public),
			pl.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistsToText converts playlists to a numbered plain-text listing.
func PlaylistsToText(playlists []spotify.SimplePlaylist) []byte {
	var buf bytes.Buffer

	for i, pl := range playlists {
		buf.WriteString(fmt.Sprintf("%d. %s - %d tracks (%s)\n", i+1, pl.Name, pl.Tracks.Total, pl.ID))
	}

	return buf.Bytes()
}
