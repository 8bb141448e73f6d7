package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/auth"
	"github.com/desertthunder/smolfy/internal/shared"
)

// BrowserLaunch builds the interactive redirect round trip for the auth flow:
// it serves the redirect URI on a loopback listener, opens the system browser
// at the authorization URL, and resolves with the redirect's query values.
//
// The round trip has no timeout of its own; it ends when the provider
// redirects back or the context is cancelled.
func BrowserLaunch(logger *log.Logger) auth.LaunchFunc {
	return func(ctx context.Context, authURL, redirectURI string) (url.Values, error) {
		target, err := url.Parse(redirectURI)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect URI: %w", err)
		}

		handler := NewCallbackHandler(target.Path)
		router := NewBasicRouter()
		router.Use(Logging(logger))
		router.Handler(handler)

		listener, err := net.Listen("tcp", target.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", target.Host, err)
		}

		srv := &http.Server{Handler: router}
		go func() {
			if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Errorf("callback server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("waiting for authorization", "redirect_uri", redirectURI)
		if err := shared.OpenBrowser(authURL); err != nil {
			logger.Warnf("could not open browser automatically: %v", err)
			logger.Infof("open this URL to continue: %s", authURL)
		}

		select {
		case result := <-handler.Result():
			return result.Values, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
