package fakebackend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

type contextKey string

const usernameKey contextKey = "username"

var jwtKey = []byte("fakebackend-signing-key")

func (b *Backend) login(masterAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			writeError(w, http.StatusUnsupportedMediaType, "login expects a form body")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		if r.PostForm.Get("grant_type") != "password" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
			return
		}

		b.mu.Lock()
		account, ok := b.accounts[r.PostForm.Get("username")]
		b.mu.Unlock()
		if !ok || account.Password != r.PostForm.Get("password") || account.MasterAdmin != masterAdmin {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Incorrect username or password",
			})
			return
		}

		b.mu.Lock()
		access := b.issueAccess(account.Username)
		b.issued++
		refresh := fmt.Sprintf("refresh-%d", b.issued)
		b.refresh[refresh] = account.Username
		resp := b.tokenBody(access, refresh)
		b.mu.Unlock()

		resp["user"] = account.User
		if account.Organization != nil {
			resp["organization"] = account.Organization
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (b *Backend) refreshToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	username, ok := b.refresh[body.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access := b.issueAccess(username)
	refresh := ""
	if b.echoRefresh {
		b.issued++
		refresh = fmt.Sprintf("refresh-echo-%d", b.issued)
		b.refresh[refresh] = username
	}
	writeJSON(w, http.StatusOK, b.tokenBody(access, refresh))
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	delete(b.access, bearer(r))
	delete(b.refresh, body.RefreshToken)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	account := b.accounts[username(r)]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, account.User)
}

// issueAccess must be called with b.mu held.
func (b *Backend) issueAccess(username string) string {
	b.issued++
	access := fmt.Sprintf("access-%d", b.issued)
	if b.jwtTTL > 0 {
		claims := jwtlib.MapClaims{
			"sub": username,
			"jti": access,
			"exp": b.nowTime().Add(b.jwtTTL).Unix(),
		}
		signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(jwtKey)
		if err == nil {
			access = signed
		}
	}
	b.access[access] = username
	return access
}

// tokenBody must be called with b.mu held.
func (b *Backend) tokenBody(access, refresh string) map[string]any {
	resp := map[string]any{
		"access_token": access,
		"token_type":   "bearer",
	}
	if refresh != "" {
		resp["refresh_token"] = refresh
	}
	if b.expiresIn > 0 && b.jwtTTL == 0 {
		resp["expires_in"] = b.expiresIn
	}
	return resp
}

// requireBearer validates the Bearer access token in the Authorization header.
func (b *Backend) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		b.mu.Lock()
		name, ok := b.access[token]
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, name)))
	})
}

func (b *Backend) requireMasterAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		account := b.accounts[username(r)]
		b.mu.Unlock()
		if !account.MasterAdmin {
			writeError(w, http.StatusForbidden, "Master admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func username(r *http.Request) string {
	name, _ := r.Context().Value(usernameKey).(string)
	return name
}
