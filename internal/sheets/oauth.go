package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// DefaultCallbackPort is where the consent flow listens for Google's redirect.
const DefaultCallbackPort = 8085

const authTimeout = 5 * time.Minute

// ErrNoTokenFile is returned when the consent flow has nowhere to save its token.
var ErrNoTokenFile = errors.New("sheets token file not configured")

const callbackPage = `<html><body>
<h1>%s</h1>
<p>%s</p>
<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`

func oauthConfig(c Config, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// Authorize runs the interactive OAuth2 consent flow and saves the resulting
// token to c.TokenFile. showURL receives the consent URL to present to the user.
func Authorize(ctx context.Context, c Config, port int, showURL func(string), logger *slog.Logger) (*oauth2.Token, error) {
	if c.TokenFile == "" {
		return nil, ErrNoTokenFile
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, errors.New("sheets client_id and client_secret are required")
	}
	if port <= 0 {
		port = DefaultCallbackPort
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	cfg := oauthConfig(c, fmt.Sprintf("http://localhost:%d/callback", port))
	state := uuid.NewString()
	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			_, _ = fmt.Fprintf(w, callbackPage, "Authentication Failed", "No authorization code received. Please try again.")
			select {
			case errorChan <- errors.New("no authorization code received"):
			default:
			}
			return
		}
		_, _ = fmt.Fprintf(w, callbackPage, "Authentication Successful", "You can close this window and return to the terminal.")
		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			select {
			case errorChan <- fmt.Errorf("callback server: %w", serveErr):
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("error shutting down callback server", "error", shutdownErr)
		}
	}()

	showURL(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))
	logger.Info("waiting for Google Sheets authorization", "port", port)

	var code string
	select {
	case code = <-codeChan:
	case err := <-errorChan:
		return nil, err
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authentication timeout: no response within %s", authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := saveToken(c.TokenFile, token); err != nil {
		return nil, err
	}
	logger.Info("sheets token saved", "file", c.TokenFile)
	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// persistingSource writes refreshed tokens back to disk.
type persistingSource struct {
	base   oauth2.TokenSource
	logger *slog.Logger
	path   string
	last   string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if saveErr := saveToken(s.path, token); saveErr != nil {
			s.logger.Warn("failed to save refreshed token", "error", saveErr)
		}
	}
	return token, nil
}

// tokenSource picks the credential source from c: a service account key,
// a saved token file, or a bare refresh token.
func tokenSource(ctx context.Context, c Config, logger *slog.Logger) (oauth2.TokenSource, error) {
	if c.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(c.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	cfg := oauthConfig(c, "")
	if c.RefreshToken != "" {
		return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken, TokenType: "Bearer"}), nil
	}

	token, err := LoadToken(c.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no usable sheets token (run `journal export sheets --authorize`): %w", err)
	}
	return &persistingSource{
		base:   oauth2.ReuseTokenSource(token, cfg.TokenSource(ctx, token)),
		path:   c.TokenFile,
		last:   token.AccessToken,
		logger: logger,
	}, nil
}
