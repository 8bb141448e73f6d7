package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/auth"
	"github.com/desertthunder/smolfy/internal/player"
	"github.com/desertthunder/smolfy/internal/repositories"
	"github.com/desertthunder/smolfy/internal/router"
	"github.com/desertthunder/smolfy/internal/server"
	"github.com/desertthunder/smolfy/internal/shared"
	"github.com/desertthunder/smolfy/internal/spotify"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client

	db     *sql.DB
	store  *auth.Store
	router *router.Router
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
	}
}

// bootstrap wires the core on first use: storage, token store, auth flow,
// API gateway, embedded player proxy, and the command router.
func (r *Runner) bootstrap() error {
	if r.router != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return err
	}

	store := auth.NewStore(repositories.NewTokenRepository(db), shared.WithLogger(r.logger, "component", "tokens"))

	flow := auth.NewFlow(auth.FlowOpts{
		Config:     r.config.Spotify,
		Store:      store,
		HTTPClient: r.httpClient,
		Logger:     shared.WithLogger(r.logger, "component", "auth"),
		Launch:     server.BrowserLaunch(r.logger),
	})

	gateway := spotify.NewClient(spotify.ClientOpts{
		Tokens:     store,
		HTTPClient: r.httpClient,
		Logger:     shared.WithLogger(r.logger, "component", "api"),
	})

	proxy := player.NewProxy(player.ProxyOpts{
		Factory: player.NewUnavailableSDK,
		GetToken: func(ctx context.Context) (string, error) {
			if rec := store.Get(); rec != nil {
				return rec.AccessToken, nil
			}
			return "", shared.ErrNotAuthenticated
		},
		Name:          r.config.Player.Name,
		InitialVolume: r.config.Player.InitialVolume,
		Logger:        shared.WithLogger(r.logger, "component", "player"),
	})

	r.db = db
	r.store = store
	r.router = router.New(gateway, proxy, flow, store, shared.WithLogger(r.logger, "component", "router"))
	return nil
}

// dispatch bootstraps the core and routes one command.
func (r *Runner) dispatch(ctx context.Context, cmd router.Command) (router.Response, error) {
	if err := r.bootstrap(); err != nil {
		return router.Response{}, err
	}
	return r.router.Dispatch(ctx, cmd), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, statusCommand,
		profileCommand, playlistsCommand, tracksCommand, likedCommand,
		searchCommand, recentCommand, stateCommand,
		playCommand, pauseCommand, nextCommand, previousCommand,
		shuffleCommand, repeatCommand, volumeCommand, trackCommand,
		serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
