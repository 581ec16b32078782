package session

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/cache"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/env"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
)

// KeyAccount holds the email of the signed-in account. It is the only value
// kept in the session; the account itself is read from the store.
const KeyAccount = "account_email"

const expiration = 24 * time.Hour

// Manager wraps the fiber session store.
type Manager struct {
	store *session.Store
}

// NewManager picks redis storage (database 1, the cache uses 0) unless
// SESSION_STORAGE=memory or redis is unreachable.
func NewManager() *Manager {
	if strings.EqualFold(env.GetEnv("SESSION_STORAGE", "redis"), "memory") || !cache.Available() {
		logger.Get().Info("using in-memory session storage")
		return NewMemoryManager()
	}

	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	addr := cacheClient.Options().Addr
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	if p := cacheClient.Options().Password; p != "" {
		password = p
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
	logger.Get().Info("using redis session storage", zap.String("addr", addr))
	return newManager(storage)
}

// NewMemoryManager keeps sessions in process memory.
func NewMemoryManager() *Manager {
	return newManager(nil)
}

func newManager(storage fiber.Storage) *Manager {
	return &Manager{store: session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		Expiration:     expiration,
		KeyLookup:      "cookie:session_id",
	})}
}

// SignIn starts a fresh session for the account.
func (m *Manager) SignIn(c *fiber.Ctx, email string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(KeyAccount, email)
	return sess.Save()
}

// SignOut destroys the session.
func (m *Manager) SignOut(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

// Account returns the email stored in the session, or "".
func (m *Manager) Account(c *fiber.Ctx) string {
	sess, err := m.store.Get(c)
	if err != nil {
		return ""
	}
	if v, ok := sess.Get(KeyAccount).(string); ok {
		return v
	}
	return ""
}
