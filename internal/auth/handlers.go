package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gyeo009/lookback-Backend/internal/i18n"
	"github.com/gyeo009/lookback-Backend/internal/metrics"
	"github.com/gyeo009/lookback-Backend/internal/validation"
)

const maxLoginBodyBytes = 64 << 10

// LoginService is implemented by *Service.
type LoginService interface {
	Login(ctx context.Context, code string) (*Result, error)
}

// GoogleAuthRequest is the POST /login body.
type GoogleAuthRequest struct {
	Code *string `json:"code"`
}

// LoginResponse is the POST /login success body.
type LoginResponse struct {
	Success   bool         `json:"success"`
	IsNewUser bool         `json:"isNewUser"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Handler provides the HTTP handler for Google login.
type Handler struct {
	service LoginService
}

// NewHandler creates a new auth handler.
func NewHandler(service LoginService) *Handler {
	return &Handler{service: service}
}

// HandleLogin serves POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.LoginDuration.Observe(time.Since(start).Seconds()) }()

	lang := r.Header.Get("Accept-Language")

	code, err := decodeCode(w, r)
	if err != nil {
		metrics.LoginRequests.WithLabelValues(metrics.OutcomeInvalidRequest).Inc()
		slog.InfoContext(r.Context(), "Rejected login request", "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: i18n.Sprintf(lang, i18n.InvalidRequest, err.Error())})
		return
	}

	result, err := h.service.Login(r.Context(), code)
	if err != nil {
		kind := KindOf(err)
		if kind == KindUpstream {
			metrics.LoginRequests.WithLabelValues(metrics.OutcomeUpstreamError).Inc()
			slog.WarnContext(r.Context(), "Google login rejected", "kind", kind.String(), "err", err)
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: i18n.Sprintf(lang, i18n.UpstreamAuthFailed, err.Error())})
			return
		}
		metrics.LoginRequests.WithLabelValues(metrics.OutcomeInternalError).Inc()
		slog.ErrorContext(r.Context(), "Login failed", "kind", kind.String(), "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: i18n.Sprintf(lang, i18n.InternalError, err.Error())})
		return
	}

	metrics.LoginRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	writeJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		IsNewUser: result.IsNewUser,
		User: UserResponse{
			Email:   result.Email,
			Name:    result.Name,
			Picture: result.Picture,
		},
	})
}

// decodeCode reads the authorization code. The code itself never appears in errors.
func decodeCode(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)

	dec := json.NewDecoder(r.Body)
	var req GoogleAuthRequest
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", fmt.Errorf("field %q must be a string", typeErr.Field)
		}
		return "", errors.New("malformed JSON body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", errors.New("unexpected data after JSON body")
	}
	if req.Code == nil {
		return "", errors.New(`field "code" is required`)
	}
	if err := validation.AuthCode(*req.Code); err != nil {
		var ve *validation.Error
		if errors.As(err, &ve) {
			return "", fmt.Errorf("field %q %s", ve.Field, ve.Message)
		}
		return "", err
	}
	return *req.Code, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}
