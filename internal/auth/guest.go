package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	authmw "github.com/quizdeck/quizdeck/internal/auth/middleware"
)

// GuestLoginHandler issues a throwaway student identity so the app is usable
// without registration. The identity is persisted in a cookie so the same
// browser keeps its attempt history.
func GuestLoginHandler(a *authmw.AuthService, db *sql.DB) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		// Reuse an existing guest from the cookie when possible.
		if c, err := r.Cookie("qd_guest_id"); err == nil && strings.HasPrefix(c.Value, "guest|") {
			var username, role string
			err := db.QueryRowContext(r.Context(),
				`SELECT username, role FROM users WHERE id = $1`, c.Value).Scan(&username, &role)
			if err == nil && role == "student" {
				tok, _ := a.IssueJWT(c.Value, role)
				setGuestCookie(w, c.Value)
				_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: username})
				return
			}
		}

		sfx := strconv.FormatInt(time.Now().UnixNano(), 36)
		userID := "guest|" + sfx
		username := "guest-" + sfx[len(sfx)-6:]

		_, _ = db.ExecContext(r.Context(),
			`INSERT INTO users (id, username, role, created_at) VALUES ($1,$2,'student',$3)`,
			userID, username, time.Now().Unix())

		tok, err := a.IssueJWT(userID, "student")
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		setGuestCookie(w, userID)
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: username})
	}
}

func setGuestCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "qd_guest_id",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}
