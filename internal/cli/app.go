package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ohare93/delegate/internal/auth"
	"github.com/ohare93/delegate/internal/config"
	"github.com/ohare93/delegate/internal/directory"
	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/logging"
	"github.com/ohare93/delegate/internal/store/filestore"
	"github.com/ohare93/delegate/internal/store/sqlstore"
	"github.com/ohare93/delegate/internal/tracker"
)

// backend is what every store driver provides
type backend interface {
	directory.Store
	tracker.TaskStore
	Close() error
}

// app is the wired object graph a command works with
type app struct {
	cfg  *config.Config
	log  *logrus.Entry
	dir  *directory.Directory
	svc  *tracker.Service
	auth *auth.Authenticator

	// fileDir is the file store directory, empty for SQL drivers
	fileDir string

	store     backend
	logCloser io.Closer
}

// loadConfig reads the config and applies the global flag overrides
func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.DataDir != "" {
		cfg.Store.Driver = config.DriverFile
		cfg.Store.Dir = opts.DataDir
	}
	return cfg, nil
}

// openApp wires the app for a one-shot command. Logging below warn is
// dropped unless --verbose is set.
func openApp(ctx context.Context, opts *GlobalOptions) (*app, error) {
	return open(ctx, opts, opts.Verbose)
}

// openServerApp wires the app with the configured log level
func openServerApp(ctx context.Context, opts *GlobalOptions) (*app, error) {
	return open(ctx, opts, true)
}

func open(ctx context.Context, opts *GlobalOptions, fullLog bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, logCloser, err := logging.Setup(cfg)
	if err != nil {
		return nil, err
	}
	if !fullLog && log.Logger.GetLevel() > logrus.WarnLevel {
		log.Logger.SetLevel(logrus.WarnLevel)
	}

	loc, err := cfg.Location()
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	store, fileDir, err := openBackend(ctx, cfg.Store)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	dir := directory.New(store, auth.NewHasher())
	a := &app{
		cfg:       cfg,
		log:       log,
		dir:       dir,
		auth:      auth.NewAuthenticator(dir),
		fileDir:   fileDir,
		store:     store,
		logCloser: logCloser,
	}
	a.svc = tracker.New(store, dir, tracker.Options{
		Location: loc,
		Logger:   log.WithField("component", "tracker"),
	})

	log.WithFields(logrus.Fields{
		"driver": cfg.Store.Driver,
		"env":    cfg.Env,
	}).Debug("store opened")
	return a, nil
}

// openBackend picks the store driver from cfg
func openBackend(ctx context.Context, cfg config.StoreConfig) (backend, string, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		s, err := filestore.Open(cfg.Dir)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open file store: %w", err)
		}
		return s, s.Dir(), nil
	default:
		s, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver:          cfg.Driver,
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
		}
		return s, "", nil
	}
}

func (a *app) Close() error {
	err := a.store.Close()
	a.logCloser.Close()
	return err
}

// actor authenticates the --as login
func (a *app) actor(ctx context.Context, opts *GlobalOptions) (*domain.User, error) {
	if opts.As == "" {
		return nil, fmt.Errorf("no user given: pass --as <login> or set %s", envUser)
	}
	password, err := readPassword(fmt.Sprintf("Password for %s: ", opts.As))
	if err != nil {
		return nil, err
	}
	user, err := a.auth.Authenticate(ctx, opts.As, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate %s: %w", opts.As, err)
	}
	return user, nil
}
