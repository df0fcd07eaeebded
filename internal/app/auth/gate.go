// Package auth resolves the caller behind a request and checks what it may do.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolhub/internal/pkg/auth"
)

// Reasons returned by Authenticate
const (
	MsgAuthRequired = "Authentication required"
	MsgInvalidToken = "Invalid or expired token"
)

// TokenCookieName is the cookie carrying the access token for browser clients
const TokenCookieName = "token"

const (
	sessionUserIDKey = "user_id"
	sessionRoleKey   = "role"
)

// Identity is the authenticated caller
type Identity struct {
	UserID string
	Role   models.Role
}

// CredentialKind tells which channel a credential came from
type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialSession
	CredentialToken
)

// Credential is the result of credential resolution. Session credentials are
// already trusted and carry Identity; token credentials carry the raw Token.
type Credential struct {
	Kind     CredentialKind
	Identity *Identity
	Token    string
}

// Gate authenticates requests over the session and token channels
type Gate struct {
	jwt           *pkgauth.JWTService
	store         sessions.Store
	sessionName   string
	secureCookies bool
}

// NewGate creates a Gate. sessionName is the session cookie name.
func NewGate(jwt *pkgauth.JWTService, store sessions.Store, sessionName string, secureCookies bool) *Gate {
	return &Gate{
		jwt:           jwt,
		store:         store,
		sessionName:   sessionName,
		secureCookies: secureCookies,
	}
}

// Resolve finds the credential presented by r: session first, then the
// Authorization header, then the token cookie.
func (g *Gate) Resolve(r *http.Request) Credential {
	if identity := g.sessionIdentity(r); identity != nil {
		return Credential{Kind: CredentialSession, Identity: identity}
	}

	if header := r.Header.Get("Authorization"); header != "" {
		if token, err := pkgauth.ExtractBearerToken(header); err == nil {
			return Credential{Kind: CredentialToken, Token: token}
		}
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return Credential{Kind: CredentialToken, Token: cookie.Value}
	}
	return Credential{Kind: CredentialNone}
}

// Authenticate resolves and verifies the caller of r
func (g *Gate) Authenticate(r *http.Request) (*Identity, error) {
	cred := g.Resolve(r)
	switch cred.Kind {
	case CredentialSession:
		return cred.Identity, nil
	case CredentialToken:
		claims, err := g.jwt.ValidateAccessToken(cred.Token)
		if err != nil {
			sentinel := apperrors.ErrTokenInvalid
			if errors.Is(err, pkgauth.ErrExpiredToken) {
				sentinel = apperrors.ErrTokenExpired
			}
			return nil, apperrors.NewCustomError(sentinel, MsgInvalidToken)
		}
		return &Identity{UserID: claims.UserID, Role: models.Role(claims.Role)}, nil
	default:
		return nil, apperrors.NewUnauthenticatedError(MsgAuthRequired)
	}
}

func (g *Gate) sessionIdentity(r *http.Request) *Identity {
	if g.store == nil {
		return nil
	}
	session, err := g.store.Get(r, g.sessionName)
	if err != nil || session == nil {
		return nil
	}
	userID, _ := session.Values[sessionUserIDKey].(string)
	role, _ := session.Values[sessionRoleKey].(string)
	if userID == "" || role == "" {
		return nil
	}
	return &Identity{UserID: userID, Role: models.Role(role)}
}

// StartSession binds user to a fresh server side session and sets the token cookie.
// A session the request already carries is destroyed, never reused.
func (g *Gate) StartSession(w http.ResponseWriter, r *http.Request, user *models.User, token string, expiresAt time.Time) error {
	if g.store != nil {
		// a stale or tampered cookie still yields a session to take options from
		previous, _ := g.store.Get(r, g.sessionName)
		opts := *previous.Options
		if !previous.IsNew {
			previous.Values = map[interface{}]interface{}{}
			previous.Options.MaxAge = -1
			// the fresh cookie below replaces the expiring one
			if err := previous.Save(r, discardWriter{header: http.Header{}}); err != nil {
				return err
			}
		}

		session := sessions.NewSession(g.store, g.sessionName)
		session.Options = &opts
		session.IsNew = true
		session.Values[sessionUserIDKey] = user.ID
		session.Values[sessionRoleKey] = string(user.Role)
		if err := session.Save(r, w); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// EndSession destroys the session and expires the token cookie
func (g *Gate) EndSession(w http.ResponseWriter, r *http.Request) error {
	var saveErr error
	if g.store != nil {
		session, _ := g.store.Get(r, g.sessionName)
		session.Values = map[interface{}]interface{}{}
		session.Options.MaxAge = -1
		saveErr = session.Save(r, w)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return saveErr
}

type discardWriter struct {
	header http.Header
}

func (d discardWriter) Header() http.Header { return d.header }

func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }

func (discardWriter) WriteHeader(int) {}
