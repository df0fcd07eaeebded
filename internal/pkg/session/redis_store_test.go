package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// unreachable client; these paths must not touch redis
func newOfflineStore() *RedisStore {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	return NewRedisStore(client, []byte("0123456789abcdef0123456789abcdef"))
}

func TestRedisStoreNewWithoutCookie(t *testing.T) {
	store := newOfflineStore()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sess, err := store.New(req, "schoolhub_session")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !sess.IsNew || sess.ID != "" {
		t.Fatalf("expected a fresh session, got IsNew=%v ID=%q", sess.IsNew, sess.ID)
	}
	sess.Options.MaxAge = 1
	if store.Options.MaxAge == 1 {
		t.Fatal("session options must be a copy of the store options")
	}
}

func TestRedisStoreRejectsTamperedCookie(t *testing.T) {
	store := newOfflineStore()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "schoolhub_session", Value: "forged"})

	sess, err := store.New(req, "schoolhub_session")
	if err == nil {
		t.Fatal("expected a decode error for a forged cookie")
	}
	if !sess.IsNew {
		t.Fatal("forged cookie must yield a new session")
	}
}

func TestRedisStoreExpireWithoutID(t *testing.T) {
	store := newOfflineStore()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := store.New(req, "schoolhub_session")
	sess.Options.MaxAge = -1

	rec := httptest.NewRecorder()
	if err := store.Save(req, rec, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestCookieOptions(t *testing.T) {
	opts := CookieOptions(2*time.Hour, true)
	if opts.MaxAge != 7200 || !opts.Secure || !opts.HttpOnly || opts.Path != "/" {
		t.Fatalf("unexpected options %+v", opts)
	}
}
