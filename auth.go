package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2/google"
)

// googleUser is the subset of the userinfo response we care about.
type googleUser struct {
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
}

type contextKey string

const userKey contextKey = "user"

// setupAuth loads the session cookie key and the Google OAuth2 client
// credentials. The cookie key is cached in the data directory so sessions
// survive restarts.
func (app *App) setupAuth(dataDir, credsFile string) error {
	keyFile := filepath.Join(dataDir, ".cookie_key")
	key, err := os.ReadFile(keyFile)
	if err != nil {
		key = securecookie.GenerateRandomKey(64)
		if err := os.WriteFile(keyFile, key, 0600); err != nil {
			return fmt.Errorf("could not save cookie key: %w", err)
		}
	}
	app.store = sessions.NewCookieStore(key)

	creds, err := os.ReadFile(credsFile)
	if err != nil {
		return fmt.Errorf("could not read credentials file: %w", err)
	}
	app.oauth, err = google.ConfigFromJSON(creds, "https://www.googleapis.com/auth/userinfo.email")
	if err != nil {
		return fmt.Errorf("could not parse OAuth2 config: %w", err)
	}
	return nil
}

func randToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// currentUser returns the logged-in user's email, if any.
func (app *App) currentUser(r *http.Request) (string, bool) {
	if app.authDisabled {
		return "anonymous", true
	}
	session, err := app.store.Get(r, "user")
	if err != nil {
		return "", false
	}
	user, ok := session.Values["user"].(string)
	return user, ok
}

// requireUser rejects requests without a valid session. The user's email is
// stored in the request context for handlers and audit records.
func (app *App) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := app.currentUser(r)
		if !ok {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// requestUser reads the email stored by requireUser.
func requestUser(r *http.Request) string {
	if user, ok := r.Context().Value(userKey).(string); ok {
		return user
	}
	return "anonymous"
}

// loginHandler is just a redirect to the Google login page.
func (app *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	state := randToken()
	session, err := app.store.Get(r, "state")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	session.Values["state"] = state
	session.Save(r, w)
	http.Redirect(w, r, app.oauth.AuthCodeURL(state), http.StatusFound)
}

func (app *App) logoutHandler(w http.ResponseWriter, r *http.Request) {
	session, err := app.store.Get(r, "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	session.Options.MaxAge = -1
	session.Save(r, w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// authHandler receives the login information from Google and checks the
// email address against the allow-list.
func (app *App) authHandler(w http.ResponseWriter, r *http.Request) {
	session, err := app.store.Get(r, "state")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if session.Values["state"] != r.URL.Query().Get("state") {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	tok, err := app.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	client := app.oauth.Client(r.Context(), tok)
	res, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)

	var user googleUser
	if err := json.Unmarshal(data, &user); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	exists, err := app.db.UserExists(user.Email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		app.audit(user.Email, "login.denied", "")
		http.Error(w, fmt.Sprintf("%s is not authorized", user.Email), http.StatusUnauthorized)
		return
	}

	session, err = app.store.Get(r, "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	session.Values["user"] = user.Email
	session.Save(r, w)

	app.audit(user.Email, "login", "")
	http.Redirect(w, r, "/", http.StatusFound)
}
