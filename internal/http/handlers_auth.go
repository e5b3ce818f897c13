package http

import (
	"net/http"

	"finsight/internal/auth"
	"finsight/internal/core"
	applog "finsight/internal/log"
)

type sessionResponse struct {
	User core.User `json:"user"`
	auth.Pair
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "Error registering user")
		return
	}
	user, pair, err := s.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Error registering user")
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User registered", applog.FieldUserID, user.ID)
	writeSuccess(w, http.StatusCreated, "User registered successfully", sessionResponse{User: user, Pair: pair})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "Error logging in")
		return
	}
	user, pair, err := s.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err, "Error logging in")
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", sessionResponse{User: user, Pair: pair})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "Error refreshing token")
		return
	}
	pair, err := s.auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		writeError(w, r, err, "Error refreshing token")
		return
	}
	writeSuccess(w, http.StatusOK, "Token refreshed successfully", pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), userID(r)); err != nil {
		writeError(w, r, err, "Error logging out")
		return
	}
	writeSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Profile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err, "Error fetching profile")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"user": user})
}
