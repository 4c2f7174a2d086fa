package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Mario928/life-context-api/internal/api/middleware"
	"github.com/Mario928/life-context-api/internal/auth"
	"github.com/Mario928/life-context-api/internal/db"
)

// AuthHandler issues and introspects bearer sessions. A user's username
// doubles as the member ID that the audio and GPS routes are addressed
// by, so both identifiers travel together in the session payload.
type AuthHandler struct {
	db  *db.Database
	jwt *auth.JWTService
}

func NewAuthHandler(database *db.Database, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{db: database, jwt: jwt}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionInfo struct {
	Token    string `json:"token,omitempty"`
	UserID   int64  `json:"user_id"`
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a signed token. Unknown usernames and
// wrong passwords get the same answer so accounts cannot be enumerated.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.db.GetUserByUsername(creds.Username)
	if err != nil || !auth.CheckPassword(creds.Password, user.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, sessionInfo{
		Token:    token,
		UserID:   user.ID,
		MemberID: user.Username,
		Role:     user.Role,
	})
}

// Me reports the session behind the presented token, re-read from the
// database so a deleted user stops resolving immediately.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.db.GetUserByID(claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, sessionInfo{
		UserID:   user.ID,
		MemberID: user.Username,
		Role:     user.Role,
	})
}
