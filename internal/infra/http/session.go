package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidPassword возвращается при неверном пароле оператора.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidToken возвращается для подделанного или просроченного токена.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session описывает выданную сессию оператора.
type Session struct {
	Token     string    `json:"token"`
	Subject   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionKey struct{}

// SessionGate выдаёт и проверяет токены вида subject.expUnix.hexHMAC.
type SessionGate struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewSessionGate создаёт шлюз. passwordHash: bcrypt-хэш пароля оператора.
func NewSessionGate(passwordHash, secret string, ttl time.Duration) *SessionGate {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionGate{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Login проверяет пароль и выдаёт токен.
func (g *SessionGate) Login(password string) (Session, error) {
	if len(g.passwordHash) == 0 || len(g.secret) == 0 {
		return Session{}, ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)); err != nil {
		return Session{}, ErrInvalidPassword
	}
	exp := g.now().Add(g.ttl).UTC().Truncate(time.Second)
	subject := "operator"
	payload := subject + "." + strconv.FormatInt(exp.Unix(), 10)
	return Session{
		Token:     payload + "." + g.sign(payload),
		Subject:   subject,
		ExpiresAt: exp,
	}, nil
}

// Verify проверяет подпись и срок действия токена.
func (g *SessionGate) Verify(token string) (Session, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" {
		return Session{}, ErrInvalidToken
	}
	payload := parts[0] + "." + parts[1]
	expected, err := hex.DecodeString(parts[2])
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	calc, _ := hex.DecodeString(g.sign(payload))
	if !hmac.Equal(calc, expected) {
		return Session{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	exp := time.Unix(expUnix, 0).UTC()
	if !g.now().Before(exp) {
		return Session{}, ErrInvalidToken
	}
	return Session{Token: token, Subject: parts[0], ExpiresAt: exp}, nil
}

func (g *SessionGate) sign(payload string) string {
	h := hmac.New(sha256.New, g.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// Middleware пропускает только запросы с действительным Bearer-токеном.
func (g *SessionGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			WriteError(w, http.StatusUnauthorized, errors.New("authorization required"))
			return
		}
		sess, err := g.Verify(token)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

// SessionFromContext возвращает сессию, положенную Middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}
