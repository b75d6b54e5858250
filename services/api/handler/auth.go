package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/telemetry"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/api/middleware"
)

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"usuario"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token and the account it belongs to.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"usuario"`
}

// Login handles POST /api/v1/auth/login. Attempts are rate limited per
// username, and failures are indistinguishable between unknown user and
// wrong password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "usuario and password are required")
		return
	}

	ctx := r.Context()
	allowed, err := h.limiter.Allow(ctx, req.Username)
	if err != nil {
		h.logger.Error("rate limiter unavailable", slog.String("error", err.Error()))
		// Fail open: an unreachable Redis should not lock everyone out.
		allowed = true
	}
	if !allowed {
		telemetry.APILoginsTotal.WithLabelValues("rate_limited").Inc()
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	user, hash, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			telemetry.APILoginsTotal.WithLabelValues("failure").Inc()
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.respondError(w, err)
		return
	}
	if !user.Active {
		telemetry.APILoginsTotal.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		telemetry.APILoginsTotal.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, user, time.Now())
	if err != nil {
		h.respondError(w, err)
		return
	}

	telemetry.APILoginsTotal.WithLabelValues("success").Inc()
	h.logger.Info("login", slog.String("usuario", user.Username), slog.String("tipo", string(user.Type)))
	writeData(w, http.StatusOK, LoginResponse{Token: token, User: user})
}
