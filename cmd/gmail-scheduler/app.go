package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hal9000y/gmail-scheduler/internal/auth"
	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
	"github.com/hal9000y/gmail-scheduler/internal/availability"
	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/config"
	"github.com/hal9000y/gmail-scheduler/internal/credential"
	"github.com/hal9000y/gmail-scheduler/internal/db"
	"github.com/hal9000y/gmail-scheduler/internal/gservice"
	"github.com/hal9000y/gmail-scheduler/internal/interpret"
	"github.com/hal9000y/gmail-scheduler/internal/invite"
	"github.com/hal9000y/gmail-scheduler/internal/labels"
	"github.com/hal9000y/gmail-scheduler/internal/lock"
	"github.com/hal9000y/gmail-scheduler/internal/tool"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// defaultRedirectURL is used by commands that never serve the OAuth callback.
const defaultRedirectURL = "http://localhost/oauth"

type appOptions struct {
	redirectURL string
	classifier  bool
}

// app holds the wired collaborators of one command.
type app struct {
	store    *db.Store
	tok      *auth.Token
	gmail    *gservice.Gmail
	calendar *gservice.Calendar
	engine   *availability.Engine
	detector *invite.Detector
	booker   *invite.Booker

	// Set only when the classifier was requested.
	model       *classifier.Model
	interpreter *interpret.Interpreter
	processor   *autoprocess.Processor
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	creds := credential.New(config.Dir())

	oauthCfg, err := oauthConfig(creds, opts.redirectURL)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("db.Open failed: %w", err)
	}

	tok, err := auth.NewToken(oauthCfg, cfg.OAuthTokenFile, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("auth.NewToken failed: %w", err)
	}

	a := &app{store: store, tok: tok}
	a.gmail = gservice.NewGmail(oauthCfg, tok, logger)
	a.calendar = gservice.NewCalendar(oauthCfg, tok, cfg.CalendarID, logger)
	a.engine = availability.NewEngine(a.calendar, cfg.AvailabilityOptions(), logger)
	a.detector = invite.NewDetector(a.calendar, a.gmail, logger)
	a.booker = invite.NewBooker(a.detector, a.calendar, a.gmail, logger)

	if !opts.classifier {
		return a, nil
	}

	apiKey, err := creds.Get(credential.GeminiAPIKey)
	if err != nil {
		a.Close()
		return nil, err
	}
	gen, err := classifier.NewGenAI(ctx, apiKey, cfg.Classifier.Model)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("classifier.NewGenAI failed: %w", err)
	}
	a.model = classifier.New(gen, logger)
	a.interpreter = interpret.NewInterpreter(a.model, logger)

	locker := lock.Chain(
		lock.NewSemaphore(),
		lock.NewLease(store, lock.LeaseOptions{TTL: cfg.LeaseTTL, Logger: logger}),
	)
	a.processor, err = autoprocess.New(autoprocess.Deps{
		Settings:   config.NewSettingsSource(configPath),
		Lock:       locker,
		Mailbox:    a.gmail,
		Classifier: a.model,
		Slots:      a.engine,
		Booker:     a.booker,
		Labels:     labels.NewGmail(a.gmail, cfg.LabelPrefix),
		Ledger:     store,
		Recorder:   store,
	}, cfg.ProcessorOptions(), logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug("collaborators wired",
		zap.String("classifier", gen.Name()),
		zap.String("db", store.Path()),
	)
	return a, nil
}

// requireAuthorized fails commands that cannot run the OAuth flow themselves.
func (a *app) requireAuthorized() error {
	if !a.tok.Authorized() {
		return fmt.Errorf("%w: no Google authorization yet, run `gmail-scheduler serve` once to sign in", types.ErrConfiguration)
	}
	return nil
}

func (a *app) toolDeps() tool.Deps {
	return tool.Deps{
		Slots:       a.engine,
		Interpreter: a.interpreter,
		Invites:     a.detector,
		Booker:      a.booker,
		Mail:        a.gmail,
		Classifier:  a.model,
		Auto:        a.processor,
		Timezone:    cfg.Timezone,
	}
}

// Close persists the token and closes the database.
func (a *app) Close() {
	logger.Debug("persisting token if exists")
	if err := a.tok.Persist(); err != nil {
		logger.Warn("tok.Persist failed", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("store.Close failed", zap.Error(err))
	}
}

func oauthConfig(creds *credential.Store, redirectURL string) (*oauth2.Config, error) {
	clientID := os.Getenv("OAUTH_GOOGLE_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("%w: env variable OAUTH_GOOGLE_CLIENT_ID must be set", types.ErrConfiguration)
	}
	clientSecret, err := creds.Get(credential.OAuthClientSecret)
	if err != nil {
		return nil, err
	}
	if redirectURL == "" {
		redirectURL = defaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       gservice.Scopes,
		Endpoint:     google.Endpoint,
	}, nil
}
