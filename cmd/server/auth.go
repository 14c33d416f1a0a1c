package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var errPasswordRequired = errors.New("password required")

type cookieConfig struct {
	Name   string
	Secure bool
}

func (s *server) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(s.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// requireAdmin rejects requests without a live session cookie.
func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.sessions.Validate(r.Context(), s.sessionToken(r))
		if err != nil {
			writeFailure(w, r, "Failed to check session", err)
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// readPassword extracts the password from a JSON or form login. Form
// passwords must contain a non-space character.
func readPassword(r *http.Request, isJSON bool) (string, error) {
	if isJSON {
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
			return "", errPasswordRequired
		}
		return body.Password, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", err
	}
	password := r.PostFormValue("password")
	if strings.TrimSpace(password) == "" {
		return "", errPasswordRequired
	}
	return password, nil
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	isJSON := isJSONRequest(r)
	fail := func(status int, code, msg string) {
		if !isJSON {
			http.Redirect(w, r, "/admin/login?error="+code, http.StatusSeeOther)
			return
		}
		writeError(w, status, msg, nil)
	}

	if !s.creds.Configured() {
		fail(http.StatusInternalServerError, "config",
			"Admin auth is not configured. Set ADMIN_PASSWORD_HASH (recommended) or ADMIN_PASSWORD.")
		return
	}

	password, err := readPassword(r, isJSON)
	if errors.Is(err, errPasswordRequired) {
		fail(http.StatusBadRequest, "required", "Password required")
		return
	}
	if err != nil {
		zap.L().Error("read login form", zap.Error(err))
		fail(http.StatusInternalServerError, "server", "Login failed")
		return
	}

	if !s.creds.Verify(password) {
		zap.L().Warn("admin login rejected", zap.String("client_ip", clientIP(r)))
		fail(http.StatusUnauthorized, "invalid", "Invalid password")
		return
	}

	token, expiresAt, err := s.sessions.Issue(r.Context())
	if err != nil {
		zap.L().Error("issue admin session", zap.Error(err))
		fail(http.StatusInternalServerError, "server", "Login failed")
		return
	}
	s.setSessionCookie(w, token, expiresAt)

	if !isJSON {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Revoke(r.Context(), s.sessionToken(r)); err != nil {
		zap.L().Error("revoke admin session", zap.Error(err))
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
