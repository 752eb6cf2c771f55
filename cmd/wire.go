package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bnema/warehouse-showcase/internal/adapters/notify"
	"github.com/bnema/warehouse-showcase/internal/adapters/qikpod"
	"github.com/bnema/warehouse-showcase/internal/adapters/render/dashboard"
	tomlrepo "github.com/bnema/warehouse-showcase/internal/adapters/repo/toml"
	"github.com/bnema/warehouse-showcase/internal/adapters/robot"
	"github.com/bnema/warehouse-showcase/internal/adapters/tokenstore"
	"github.com/bnema/warehouse-showcase/internal/application"
	"github.com/bnema/warehouse-showcase/internal/config"
	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/logging"
	"github.com/bnema/warehouse-showcase/internal/ports"
)

const serviceName = "ams"

type app struct {
	settings          config.Settings
	logger            *slog.Logger
	catalog           *tomlrepo.CatalogRepository
	history           *tomlrepo.HistoryRepository
	tokens            ports.TokenStore
	remote            *qikpod.Client
	dashboardRenderer func(application.Snapshot, dashboard.RenderOptions) (string, error)
	clock             ports.Clock
}

func (a *app) wire(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	settings, err := config.Decode(cfg)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, serviceName, settings.Log.Level, settings.Log.Format)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	catalog, err := tomlrepo.NewCatalogRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire catalog repository: %w", err)
	}

	history, err := tomlrepo.NewHistoryRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire history repository: %w", err)
	}

	tokens, err := newTokenStore(settings.Secrets)
	if err != nil {
		return fmt.Errorf("wire token store: %w", err)
	}

	a.settings = settings
	a.logger = logger
	a.catalog = catalog
	a.history = history
	a.tokens = tokens
	a.dashboardRenderer = dashboard.Render
	a.clock = ports.SystemClock{}
	return nil
}

func newTokenStore(settings config.Secrets) (*tokenstore.Store, error) {
	dir := settings.Dir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config", "ams", "secrets")
	}

	return tokenstore.New(tokenstore.Options{
		Backend:   settings.Backend,
		PassEntry: path.Join(settings.PassPrefix, settings.TokenKey),
		File:      filepath.Join(dir, filepath.FromSlash(settings.TokenKey)),
	})
}

// remoteClient returns the showcase API client. Without a configured token it
// falls back to the one saved by `ams login`.
func (a *app) remoteClient(ctx context.Context) (*qikpod.Client, error) {
	if a.remote != nil {
		return a.remote, nil
	}

	token := a.settings.Qikpod.Token
	if token == "" {
		stored, err := a.tokens.Load(ctx)
		switch {
		case err == nil:
			token = stored
		case errors.Is(err, domain.ErrNoToken):
			a.logger.Debug("no stored api token, continuing without one")
		default:
			a.logger.Warn("load stored api token", "error", err)
		}
	}

	remote, err := qikpod.NewClient(qikpod.Config{
		BaseURL: a.settings.Qikpod.BaseURL,
		Token:   token,
		Timeout: a.settings.Qikpod.Timeout,
		Logger:  a.logger.With("component", "qikpod"),
	})
	if err != nil {
		return nil, fmt.Errorf("wire qikpod client: %w", err)
	}

	a.remote = remote
	return remote, nil
}

func (a *app) authClient() (*qikpod.Client, error) {
	client, err := qikpod.NewClient(qikpod.Config{
		BaseURL: a.settings.Qikpod.AuthURL,
		Timeout: a.settings.Qikpod.Timeout,
		Logger:  a.logger.With("component", "qikpod-auth"),
	})
	if err != nil {
		return nil, fmt.Errorf("wire qikpod auth client: %w", err)
	}
	return client, nil
}

func (a *app) timings() robot.Timings {
	return robot.Timings{
		Move:  a.settings.Robot.Move,
		Pick:  a.settings.Robot.Pick,
		Place: a.settings.Robot.Place,
	}
}

// runtime is one coordinator with its robot binding, notifier chain and, in
// remote mode, the feed poller.
type runtime struct {
	coordinator   *application.Coordinator
	poller        *application.Poller
	notifications *notify.Recorder
}

func (a *app) newRuntime(ctx context.Context, mode string, scale float64) (*runtime, error) {
	catalog, err := a.startingCatalog(ctx, mode)
	if err != nil {
		return nil, err
	}

	timings := scaleTimings(a.timings(), scale)
	recorder := notify.NewRecorder(a.settings.Notifications.Capacity)

	rt := &runtime{notifications: recorder}

	var (
		binding ports.Robot
		remote  *qikpod.Client
	)
	switch mode {
	case config.ModeRemote:
		remote, err = a.remoteClient(ctx)
		if err != nil {
			return nil, err
		}
		binding = robot.NewRemote(remote,
			robot.WithAvailabilityChecker(remote),
			robot.WithPacing(timings),
			robot.WithActionTimeout(a.settings.Robot.ActionTimeout),
			robot.WithLogger(a.logger.With("component", "robot")),
		)
	default:
		binding = robot.NewSimulated(timings)
	}

	rt.coordinator = application.NewCoordinator(catalog, binding, application.Options{
		Clock:    a.clock,
		Notifier: notify.Fanout{recorder, notify.NewLogger(a.logger.With("component", "notify"))},
		History:  a.history,
		Logger:   a.logger.With("component", "coordinator"),
		AfterAction: func() {
			if rt.poller != nil {
				rt.poller.Refresh()
			}
		},
	})

	if mode == config.ModeRemote {
		rt.poller = application.NewPoller(rt.coordinator, remote, remote,
			a.settings.Qikpod.PollInterval, a.logger.With("component", "poller"))
	}

	return rt, nil
}

// startingCatalog is the seed catalog in simulated mode. In remote mode the
// coordinator starts empty and the first poll of the feeds fills it, so seed
// parts never mix with the storage API's items.
func (a *app) startingCatalog(ctx context.Context, mode string) (domain.Catalog, error) {
	if mode == config.ModeRemote {
		return domain.Catalog{}, nil
	}

	catalog, err := a.catalog.Load(ctx)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

func scaleTimings(timings robot.Timings, scale float64) robot.Timings {
	if scale <= 0 || scale == 1 {
		return timings
	}
	apply := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) * scale)
	}
	return robot.Timings{Move: apply(timings.Move), Pick: apply(timings.Pick), Place: apply(timings.Place)}
}
