package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/waselni/waselni-cli/internal/adapters/api"
	statusadapter "github.com/waselni/waselni-cli/internal/adapters/render/status"
	tomlrepo "github.com/waselni/waselni-cli/internal/adapters/repo/toml"
	chainstore "github.com/waselni/waselni-cli/internal/adapters/secrets/chain"
	filestore "github.com/waselni/waselni-cli/internal/adapters/secrets/file"
	passstore "github.com/waselni/waselni-cli/internal/adapters/secrets/pass"
	"github.com/waselni/waselni-cli/internal/application"
	"github.com/waselni/waselni-cli/internal/config"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/logging"
	"github.com/waselni/waselni-cli/internal/metrics"
	"github.com/waselni/waselni-cli/internal/ports"
	"github.com/waselni/waselni-cli/internal/version"
)

type app struct {
	settings       config.Settings
	profiles       *application.ProfileService
	secretStore    ports.SecretStore
	statusRenderer func(statusadapter.Snapshot, statusadapter.RenderOptions) (string, error)
	httpClient     *http.Client
	now            func() time.Time
	flags          globalFlags
}

type globalFlags struct {
	profile string
	baseURL string
}

// sessionHandle is a session bound to the profile a command runs against.
type sessionHandle struct {
	profile     domain.Profile
	session     *application.Session
	marketplace *application.Marketplace
}

func wireApp() (*app, error) {
	cfg, err := config.Load("", "")
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	settings, err := config.Resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	repo, err := tomlrepo.NewRepository(profilesConfig(settings))
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	secretStore, err := newSecretStore(settings)
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	return &app{
		settings:       settings,
		profiles:       application.NewProfileService(repo, secretStore, ports.SystemClock{}),
		secretStore:    secretStore,
		statusRenderer: statusadapter.Render,
		httpClient:     http.DefaultClient,
		now:            time.Now,
	}, nil
}

func profilesConfig(settings config.Settings) *viper.Viper {
	cfg := viper.New()
	cfg.Set(tomlrepo.ProfilesPathKey, settings.ProfilesPath)
	return cfg
}

func newSecretStore(settings config.Settings) (ports.SecretStore, error) {
	switch settings.SecretsKind {
	case config.SecretsFile:
		return filestore.NewStore(settings.SecretsDir), nil
	case config.SecretsPass:
		return passstore.NewStore(), nil
	default:
		return chainstore.NewPassFirstWithFileFallback(settings.SecretsDir)
	}
}

// openSession resolves the profile and backend address for cmd and builds a
// session on it. The base URL comes from --base-url, then the profile, then
// configuration.
func (a *app) openSession(cmd *cobra.Command) (*sessionHandle, error) {
	profile, err := a.profiles.Resolve(cmd.Context(), domain.ProfileID(strings.TrimSpace(a.flags.profile)))
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), a.settings.LogLevel, a.settings.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	logger = logger.With(slog.String("profile", string(profile.ID)))

	client, err := api.NewClient("", a.settings.Timeout, api.NewLimiter(a.settings.RateLimit, a.settings.Burst))
	if err != nil {
		return nil, err
	}
	client.HTTPClient = a.httpClient
	client.UserAgent = "waselni-cli/" + version.Version

	session := application.NewSession(client, application.NewTokenVault(a.secretStore, profile), application.SessionOptions{
		Logger:         logger,
		Metrics:        metrics.NewSession(),
		RefreshTimeout: a.settings.Timeout,
	})
	session.Subscribe(logTransitions(logger))
	if err := session.Configure(a.baseURLFor(profile)); err != nil {
		return nil, fmt.Errorf("configure backend: %w", err)
	}

	return &sessionHandle{
		profile:     profile,
		session:     session,
		marketplace: application.NewMarketplace(session),
	}, nil
}

func (a *app) baseURLFor(profile domain.Profile) string {
	if flag := strings.TrimSpace(a.flags.baseURL); flag != "" {
		return flag
	}
	if profile.BaseURL != "" {
		return profile.BaseURL
	}
	return a.settings.BaseURL
}

// withLoginHint points the user at login when the session cannot be used.
func withLoginHint(err error, profile domain.Profile) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrAuthorizationInvalid) || errors.Is(err, domain.ErrNotAuthenticated) || errors.Is(err, domain.ErrAuthorizationExpired) {
		return fmt.Errorf("%w; sign in with `waselni login --profile %s`", err, profile.ID)
	}
	return err
}

func requireAuthenticated(ctx context.Context, handle *sessionHandle) (application.State, error) {
	state, err := handle.session.Restore(ctx)
	if err != nil {
		return state, withLoginHint(err, handle.profile)
	}
	if !state.IsAuthenticated {
		return state, withLoginHint(domain.ErrNotAuthenticated, handle.profile)
	}
	return state, nil
}

// logTransitions returns a session listener that logs sign-in and sign-out
// transitions at debug level. Sign-outs include forced logouts after a failed
// refresh.
func logTransitions(logger *slog.Logger) func(application.State) {
	var (
		mu            sync.Mutex
		authenticated bool
	)

	return func(state application.State) {
		mu.Lock()
		previous := authenticated
		authenticated = state.IsAuthenticated
		mu.Unlock()

		if previous == state.IsAuthenticated {
			return
		}
		if !state.IsAuthenticated {
			logger.Debug("session signed out", slog.Bool("token_stored", state.HasToken))
			return
		}

		attrs := []any{slog.Bool("token_stored", state.HasToken)}
		if state.User != nil {
			attrs = append(attrs, slog.String("user_id", string(state.User.ID)), slog.String("role", string(state.User.Role)))
		}
		logger.Debug("session signed in", attrs...)
	}
}
