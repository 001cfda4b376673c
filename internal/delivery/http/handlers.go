package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/chat2k/internal/config"
	"github.com/mmuslimabdulj/chat2k/internal/delivery/ws"
	"github.com/mmuslimabdulj/chat2k/internal/store"
	"github.com/mmuslimabdulj/chat2k/internal/usecase"
	"github.com/mmuslimabdulj/chat2k/internal/view/pages"
)

const (
	pageTitle     = "Chat 2000"
	healthTimeout = 2 * time.Second
	maxFormBytes  = 16 << 10
)

// isOriginAllowed checks if the origin is in the allowed list
func isOriginAllowed(allowedOrigins []string, origin string) bool {
	// Empty origin is allowed (same-origin requests)
	if origin == "" {
		return true
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

type Handler struct {
	cfg        *config.Config
	controller *ws.Controller
	accounts   *usecase.Accounts
	store      store.Gateway
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

func NewHandler(cfg *config.Config, controller *ws.Controller, accounts *usecase.Accounts, gw store.Gateway, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		cfg:        cfg,
		controller: controller,
		accounts:   accounts,
		store:      gw,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

// Routes registers every endpoint on mux. api guards the JSON endpoints,
// strict guards login and registration, wsLimit guards upgrades.
func (h *Handler) Routes(mux *http.ServeMux, api, strict, wsLimit func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /{$}", h.HandleChatPage)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /ws", wsLimit(h.HandleWebSocket))
	mux.HandleFunc("POST /api/register", strict(h.HandleRegister))
	mux.HandleFunc("POST /api/login", strict(h.HandleLogin))
	mux.HandleFunc("POST /api/logout", api(h.HandleLogout))
	mux.HandleFunc("GET /api/user/{id}", api(h.HandleUser))
}

// HandleChatPage serves the chat page
func (h *Handler) HandleChatPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Chat(pageTitle).Render(r.Context(), w); err != nil {
		h.logger.Error("render chat page", "error", err)
	}
}

// HandleRegister creates an account
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req usecase.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	switch {
	case err == nil:
		h.logger.Info("user registered", "user", user.Username, "user_id", user.ID)
		writeJSON(w, http.StatusCreated, user)
	case errors.Is(err, usecase.ErrInvalidEmail),
		errors.Is(err, usecase.ErrPasswordMismatch),
		errors.Is(err, usecase.ErrUsernameRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("register user", "error", err)
		writeError(w, http.StatusInternalServerError, "The account wasn't created")
	}
}

// HandleLogin checks credentials and issues a session token
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var unknown *usecase.UnknownUserError
		if errors.As(err, &unknown) || errors.Is(err, usecase.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("login", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// HandleLogout revokes the session token in the body
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.accounts.Logout(req.Token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleUser returns the profile of a user to a signed in caller
func (h *Handler) HandleUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.accounts.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("load user", "user_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleHealth reports store reachability and connection counts
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store health check failed", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":      status,
		"online":      h.controller.OnlineCount(),
		"connections": h.controller.ConnectionCount(),
	})
}

// HandleWebSocket upgrades an authenticated request to a chat connection
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(conn, h.cfg.MaxMessageSize, h.logger)
	// the session outlives the upgrade request
	session := h.controller.Connect(context.Background(), client, userID)

	go client.WritePump()
	go client.ReadPump(session)
}

// authenticate resolves the session token from the Authorization header or,
// for browser websockets which cannot set headers, the token query parameter.
func (h *Handler) authenticate(r *http.Request) (string, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		token = r.URL.Query().Get("token")
	}
	return h.accounts.Authenticate(token)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
