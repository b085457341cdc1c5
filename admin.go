package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// adminUsers lists the emails allowed to log in.
func (app *App) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := app.db.LoadUsers()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render.JSON(w, r, map[string][]string{"users": users})
}

// adminAddUser adds an email to the allow-list.
func (app *App) adminAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		http.Error(w, "invalid email address", http.StatusBadRequest)
		return
	}

	exists, err := app.db.UserExists(email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if exists {
		http.Error(w, "user already exists", http.StatusConflict)
		return
	}
	if err := app.db.SaveUser(email); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	app.audit(requestUser(r), "user.add", email)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"email": email})
}

// adminDeleteUser removes an email from the allow-list. Users can't delete
// themselves, which keeps the list from ever being emptied by accident.
func (app *App) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(chi.URLParam(r, "email"))
	if email == requestUser(r) {
		http.Error(w, "refusing to delete your own account", http.StatusBadRequest)
		return
	}

	exists, err := app.db.UserExists(email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "no such user", http.StatusNotFound)
		return
	}
	if err := app.db.DeleteUser(email); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	app.audit(requestUser(r), "user.delete", email)
	w.WriteHeader(http.StatusNoContent)
}
