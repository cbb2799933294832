package credentials

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/db"
	"github.com/galatadergisi/galata-backend/pkg/db/models"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultRefreshSkew = 5 * time.Minute

// ErrNoAccessToken is returned by TokenSource before the first Refresh.
var ErrNoAccessToken = errors.New("no drive access token; refresh first")

// DriveScope grants access to files the application creates.
const DriveScope = "https://www.googleapis.com/auth/drive"

// SettingsStore reads the stored OAuth client and persists rotated refresh tokens.
type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
	UpdateRefreshToken(ctx context.Context, token string) (int64, error)
}

// Params tune the manager. TokenURL and HTTPClient are for tests.
type Params struct {
	TokenURL    string
	RefreshSkew time.Duration
	HTTPClient  *http.Client
	Logger      *logger.Logger
}

// Refresh is the outcome of Manager.Refresh. Rotated is set when the provider
// issued a refresh token different from the one in use; the caller persists it.
type Refresh struct {
	Token        *oauth2.Token
	Rotated      bool
	RefreshToken string
}

// Manager owns the Drive OAuth token. Access tokens live in memory only; the
// refresh token lives in the settings row.
type Manager struct {
	cfg        *oauth2.Config
	store      SettingsStore
	httpClient *http.Client
	logg       *logger.Logger
	skew       time.Duration
	now        func() time.Time

	mu           sync.Mutex
	token        *oauth2.Token
	refreshToken string
}

// Load reads the OAuth client from settings. Any failure here is a startup
// error: the worker cannot sync without credentials.
func Load(ctx context.Context, store SettingsStore, params Params) (*Manager, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStartup, "settings store required")
	}
	s, err := store.Get(ctx)
	if db.IsNotFound(err) {
		return nil, pkgerrors.New(pkgerrors.CodeStartup, "settings row is missing; run migrations and seed it")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStartup, err, "read drive credentials from settings")
	}

	var missing []string
	if strings.TrimSpace(s.DriveClientID) == "" {
		missing = append(missing, "drive_client_id")
	}
	if strings.TrimSpace(s.DriveClientSecret) == "" {
		missing = append(missing, "drive_client_secret")
	}
	if strings.TrimSpace(s.DriveRefreshToken) == "" {
		missing = append(missing, "drive_refresh_token")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStartup, "drive credentials incomplete: missing "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}

	endpoint := google.Endpoint
	if tokenURL := strings.TrimSpace(params.TokenURL); tokenURL != "" {
		endpoint = oauth2.Endpoint{
			AuthURL:   google.Endpoint.AuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		}
	}

	skew := params.RefreshSkew
	if skew <= 0 {
		skew = defaultRefreshSkew
	}

	return &Manager{
		cfg: &oauth2.Config{
			ClientID:     s.DriveClientID,
			ClientSecret: s.DriveClientSecret,
			RedirectURL:  s.DriveRedirectURI,
			Endpoint:     endpoint,
			Scopes:       []string{DriveScope},
		},
		store:        store,
		httpClient:   params.HTTPClient,
		logg:         params.Logger,
		skew:         skew,
		now:          time.Now,
		refreshToken: s.DriveRefreshToken,
	}, nil
}

// Refresh returns a usable access token, contacting the provider only when the
// cached one is missing or expires within the skew window.
func (m *Manager) Refresh(ctx context.Context) (Refresh, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fresh() {
		return Refresh{Token: m.token, RefreshToken: m.refreshToken}, nil
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}
	tok, err := m.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: m.refreshToken}).Token()
	if err != nil {
		return Refresh{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh drive access token")
	}

	result := Refresh{Token: tok, RefreshToken: m.refreshToken}
	if tok.RefreshToken != "" && tok.RefreshToken != m.refreshToken {
		m.refreshToken = tok.RefreshToken
		result.Rotated = true
		result.RefreshToken = tok.RefreshToken
	}
	m.token = tok
	return result, nil
}

func (m *Manager) fresh() bool {
	if m.token == nil || m.token.AccessToken == "" {
		return false
	}
	if m.token.Expiry.IsZero() {
		return true
	}
	return m.token.Expiry.After(m.now().Add(m.skew))
}

// Persist stores a rotated refresh token. Failures are logged and swallowed;
// the in-memory token keeps working until the process restarts.
func (m *Manager) Persist(ctx context.Context, refreshToken string) {
	affected, err := m.store.UpdateRefreshToken(ctx, refreshToken)
	if m.logg == nil {
		return
	}
	switch {
	case err != nil:
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "failed to persist rotated drive refresh token")
	case affected != 1:
		m.logg.Warn(m.logg.WithField(ctx, "rows_affected", affected), "rotated drive refresh token did not update the settings row")
	default:
		m.logg.Info(ctx, "rotated drive refresh token persisted")
	}
}

// TokenSource hands the current access token to API clients. It never
// refreshes; the sync engine calls Refresh before each upload.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return tokenSourceFunc(func() (*oauth2.Token, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.token == nil {
			return nil, ErrNoAccessToken
		}
		tok := *m.token
		return &tok, nil
	})
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }
