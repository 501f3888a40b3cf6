package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager issues opaque bearer tokens backed by Redis.
type SessionManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Session is the server side state bound to a bearer token.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, prefix string, ttl time.Duration) *SessionManager {
	if prefix == "" {
		prefix = "session"
	}
	return &SessionManager{client: client, prefix: prefix, ttl: ttl}
}

// Create stores a new session for the user and returns it with its token.
func (sm *SessionManager) Create(ctx context.Context, userID int64, username string) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		Token:     id.String(),
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().Add(sm.ttl).UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), payload, sm.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load resolves a token. Unknown or expired tokens yield ErrUnauthorized.
func (sm *SessionManager) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	return &sess, nil
}

// Destroy revokes the token.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

func (sm *SessionManager) redisKey(token string) string {
	return sm.prefix + ":" + token
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session stored by WithSession, or nil.
func SessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}
