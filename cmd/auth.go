package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/smolfy/internal/router"
	"github.com/urfave/cli/v3"
)

// Login runs the full authorization code flow with PKCE. It opens the
// account consent page in a browser and waits for the redirect.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindLogin})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("login failed: %s", resp.Error)
	}

	return r.writePlain("Logged in to Spotify\n")
}

// Logout disconnects the embedded player if one is running and clears
// stored tokens.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindLogout})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("logout failed: %s", resp.Error)
	}

	return r.writePlain("Logged out\n")
}

// Status reports whether a valid access token is available.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.dispatch(ctx, router.Command{Type: router.KindGetAuthStatus})
	if err != nil {
		return err
	}

	if resp.IsAuthenticated != nil && *resp.IsAuthenticated {
		return r.writePlain("Authenticated\n")
	}
	return r.writePlain("Not authenticated (run `smolfy login`)\n")
}

// loginCommand starts the OAuth flow
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Authenticate with Spotify using OAuth2 with PKCE",
		Action: r.Login,
	}
}

// logoutCommand clears the stored session
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Disconnect the embedded player and clear stored tokens",
		Action: r.Logout,
	}
}

// statusCommand reports authentication state
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Check current authentication state",
		Action: r.Status,
	}
}
