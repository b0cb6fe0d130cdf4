package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/storage"
	"github.com/fsnotify/fsnotify"
	"github.com/peterbourgon/diskv/v3"
	"golang.org/x/crypto/bcrypt"
)

const sessionKey = "session"

// DefaultSessionTTL is how long a sign-in lasts when LocalConfig.TTL is unset.
const DefaultSessionTTL = 30 * 24 * time.Hour

// DefaultExpiryCheck is how often Watch looks for a session that has run out.
const DefaultExpiryCheck = time.Minute

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (*storage.User, error)
}

// LocalConfig configures a Local provider.
type LocalConfig struct {
	Users      UserStore
	Logger     *slog.Logger
	Now        func() time.Time
	SessionDir string
	TTL        time.Duration
	// ExpiryCheck defaults to DefaultExpiryCheck.
	ExpiryCheck time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Local authenticates against a UserStore and keeps the signed-in session in
// a small on-disk key/value store so that it survives between runs and is
// shared by concurrently running commands.
type Local struct {
	users    UserStore
	sessions *diskv.Diskv
	logger   *slog.Logger
	now      func() time.Time
	subs     subscribers
	dir      string
	session  Session
	ttl      time.Duration
	every    time.Duration
	cost     int
	mu       sync.RWMutex
	ok       bool
}

// NewLocal opens the session store in cfg.SessionDir and loads any existing
// session.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.Users == nil {
		return nil, fmt.Errorf("%w: user store", common.ErrMissingConfig)
	}
	if strings.TrimSpace(cfg.SessionDir) == "" {
		return nil, fmt.Errorf("%w: session directory", common.ErrMissingConfig)
	}
	tempDir := filepath.Join(cfg.SessionDir, ".tmp")
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	l := &Local{
		users:  cfg.Users,
		logger: common.OrDefault(cfg.Logger),
		now:    cfg.Now,
		dir:    cfg.SessionDir,
		ttl:    cfg.TTL,
		every:  cfg.ExpiryCheck,
		cost:   cfg.BcryptCost,
		sessions: diskv.New(diskv.Options{
			BasePath:     cfg.SessionDir,
			TempDir:      tempDir,
			CacheSizeMax: 0,
			PathPerm:     0o700,
			FilePerm:     0o600,
		}),
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.ttl <= 0 {
		l.ttl = DefaultSessionTTL
	}
	if l.every <= 0 {
		l.every = DefaultExpiryCheck
	}
	if l.cost == 0 {
		l.cost = bcrypt.DefaultCost
	}

	if session, ok := l.load(); ok {
		l.session, l.ok = session, true
	}
	return l, nil
}

// CurrentUserID implements Identity.
func (l *Local) CurrentUserID() string {
	session, ok := l.Session()
	if !ok {
		return ""
	}
	return session.UserID
}

// Session implements Provider. An expired session reads as signed out.
func (l *Local) Session() (Session, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.ok || l.session.Expired(l.now()) {
		return Session{}, false
	}
	return l.session, true
}

// Subscribe implements Provider.
func (l *Local) Subscribe(fn func(Session, bool)) func() {
	return l.subs.add(fn)
}

// SignUp creates an account and signs in as it.
func (l *Local) SignUp(ctx context.Context, email, password string) (Session, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := l.users.CreateUser(ctx, strings.TrimSpace(email), string(hash))
	if errors.Is(err, storage.ErrDuplicateEntry) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to create account: %w", err)
	}

	l.logger.Info("account created", "user_id", user.ID)
	return l.start(user)
}

// SignIn checks the password and starts a session.
func (l *Local) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return Session{}, err
	}

	user, err := l.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, common.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to compare passwords: %w", err)
	}

	return l.start(user)
}

// SignOut ends the session. Signing out while signed out is a no-op.
func (l *Local) SignOut() error {
	if l.sessions.Has(sessionKey) {
		if err := l.sessions.Erase(sessionKey); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session: %w", err)
		}
	}
	l.apply(Session{}, false)
	return nil
}

// ExpiresAt returns when the current session ends.
func (l *Local) ExpiresAt() (time.Time, bool) {
	session, ok := l.Session()
	return session.ExpiresAt, ok
}

func (l *Local) start(user *storage.User) (Session, error) {
	now := l.now().UTC()
	session := Session{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := l.sessions.Write(sessionKey, data); err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	l.apply(session, true)
	return session, nil
}

// apply swaps in a new session and notifies subscribers if it changed.
func (l *Local) apply(session Session, ok bool) {
	l.mu.Lock()
	changed := ok != l.ok || !session.same(l.session)
	l.session, l.ok = session, ok
	l.mu.Unlock()

	if changed {
		l.subs.notify(session, ok)
	}
}

// load reads the persisted session. A missing, unreadable or expired session
// reports false.
func (l *Local) load() (Session, bool) {
	if !l.sessions.Has(sessionKey) {
		return Session{}, false
	}
	data, err := l.sessions.Read(sessionKey)
	if err != nil {
		l.logger.Debug("failed to read session", "error", err)
		return Session{}, false
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil || session.UserID == "" {
		l.logger.Warn("ignoring unreadable session file", "dir", l.dir)
		return Session{}, false
	}
	if session.Expired(l.now()) {
		return Session{}, false
	}
	return session, true
}

// Watch follows the session directory until ctx is done so that a sign-in or
// sign-out from another process reaches this process's subscribers. It also
// checks the clock periodically and reports a session that expires while
// this process holds it as a sign-out.
func (l *Local) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create session watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		ticker := time.NewTicker(l.every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.expire()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("session watcher error", "error", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(evt.Name) != sessionKey {
					continue
				}
				l.reload()
			}
		}
	}()
	return nil
}

// expire signs out a held session whose time is up.
func (l *Local) expire() {
	l.mu.RLock()
	expired := l.ok && l.session.Expired(l.now())
	userID := l.session.UserID
	l.mu.RUnlock()
	if expired {
		l.logger.Info("session expired", "user_id", userID)
		l.apply(Session{}, false)
	}
}

func (l *Local) reload() {
	session, ok := l.load()
	l.apply(session, ok)
}
