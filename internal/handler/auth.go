package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"rationdesk/internal/localstore"
	"rationdesk/internal/model"
	"rationdesk/internal/mw"
	"rationdesk/internal/service"
	"rationdesk/internal/syncstatus"
)

type Accounts interface {
	Register(ctx context.Context, email, password, fullName string) (*model.Admin, error)
	Authenticate(ctx context.Context, email, password string) (*model.Admin, error)
	Get(ctx context.Context, id string) (*model.Admin, error)
}

// FlagStore holds the local auth flag.
type FlagStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func RegisterHandler(accounts Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			http.Error(w, "email and password required", http.StatusBadRequest)
			return
		}

		admin, err := accounts.Register(r.Context(), req.Email, req.Password, req.FullName)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailTaken):
				http.Error(w, "email already registered", http.StatusConflict)
			default:
				slog.Error("register failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, admin)
	}
}

func LoginHandler(accounts Accounts, flags FlagStore, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		admin, err := accounts.Authenticate(r.Context(), strings.TrimSpace(req.Email), req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidCredentials):
				http.Error(w, "invalid email or password", http.StatusUnauthorized)
			default:
				slog.Error("login failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		if admin.Role != model.RoleAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}

		token, err := mw.IssueToken(admin, secret)
		if err != nil {
			http.Error(w, "token generation failed", http.StatusInternalServerError)
			return
		}

		if err := flags.Put(r.Context(), localstore.UserKey(localstore.KeyIsAuthenticated, admin.ID), []byte("true")); err != nil {
			slog.Warn("failed to set local auth flag", "error", err)
		} else if err := flags.Put(r.Context(), localstore.UserKey(localstore.KeyUserEmail, admin.ID), []byte(admin.Email)); err != nil {
			slog.Warn("failed to store admin email", "error", err)
		}

		w.Header().Set("Authorization", "Bearer "+token)
		w.WriteHeader(http.StatusOK)
	}
}

// LogoutHandler clears the local auth flag of the calling admin only.
func LogoutHandler(flags FlagStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(mw.UserCtxKey).(string)
		for _, key := range []string{localstore.KeyIsAuthenticated, localstore.KeyUserEmail} {
			if err := flags.Delete(r.Context(), localstore.UserKey(key, userID)); err != nil {
				slog.Error("logout failed", "key", key, "error", err)
				http.Error(w, "failed to log out", http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

type dashboardResponse struct {
	AdminName string            `json:"admin_name"`
	Sync      syncstatus.Status `json:"sync"`
}

func DashboardHandler(accounts Accounts, flags FlagStore, status *syncstatus.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dashboardResponse{
			AdminName: adminName(r, accounts, flags),
			Sync:      status.Snapshot(),
		})
	}
}

// adminName prefers the locally signed-in email, then the profile name.
func adminName(r *http.Request, accounts Accounts, flags FlagStore) string {
	ctx := r.Context()
	userID, ok := ctx.Value(mw.UserCtxKey).(string)
	if !ok {
		return "Admin"
	}

	if v, err := flags.Get(ctx, localstore.UserKey(localstore.KeyIsAuthenticated, userID)); err == nil && string(v) == "true" {
		if email, err := flags.Get(ctx, localstore.UserKey(localstore.KeyUserEmail, userID)); err == nil && len(email) > 0 {
			name, _, _ := strings.Cut(string(email), "@")
			return name
		}
	}

	admin, err := accounts.Get(ctx, userID)
	if err == nil && admin.FullName != "" {
		return admin.FullName
	}
	if err != nil && !errors.Is(err, service.ErrAdminNotFound) {
		slog.Warn("failed to load admin profile", "error", err)
	}
	return "Admin"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
