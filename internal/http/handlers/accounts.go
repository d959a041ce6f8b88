package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hongminglow/tasks-be/internal/account"
	"github.com/hongminglow/tasks-be/internal/http/respond"
	"github.com/hongminglow/tasks-be/internal/middleware"
	"github.com/hongminglow/tasks-be/internal/models"
	"github.com/hongminglow/tasks-be/internal/models/dto"
)

// maxBodyBytes caps request bodies; task documents are small.
const maxBodyBytes = 1 << 20

// AccountService is the set of operations the transport maps routes onto.
type AccountService interface {
	CreateAccount(ctx context.Context, in account.CreateAccountInput) (models.Profile, error)
	Authenticate(ctx context.Context, in account.Credentials) (models.Profile, error)
	ReadProfile(ctx context.Context, username string) (models.Profile, error)
	UpdateProfile(ctx context.Context, in account.UpdateProfileInput) error
	ClearTasks(ctx context.Context, username string) error
}

// AccountHandler exposes signup, login and the tasks document over HTTP.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Register attaches account routes to the mux.
func (h *AccountHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/signup", h.handleSignup)
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/tasks", h.handleTasks)
	mux.HandleFunc("/api/tasks/signup", h.handleSignup)
	mux.HandleFunc("/api/tasks/login", h.handleLogin)
}

func (h *AccountHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req dto.SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	profile, err := h.accounts.CreateAccount(r.Context(), account.CreateAccountInput{
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, dto.AccountResponse{Success: true, Profile: profile})
}

func (h *AccountHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req dto.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	profile, err := h.accounts.Authenticate(r.Context(), account.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.AccountResponse{Success: true, Profile: profile})
}

func (h *AccountHandler) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
	default:
		methodNotAllowed(w)
		return
	}

	var req dto.TasksRequest
	if err := decodeBody(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		username = req.Username
	}

	switch r.Method {
	case http.MethodGet:
		profile, err := h.accounts.ReadProfile(r.Context(), username)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, profile)

	case http.MethodPut:
		timezone, err := req.TimezoneValue()
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, respond.Failure{Error: err.Error(), Kind: string(account.KindValidation)})
			return
		}
		err = h.accounts.UpdateProfile(r.Context(), account.UpdateProfileInput{
			Username: username,
			Tasks:    req.Tasks,
			Timezone: timezone,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, dto.SuccessResponse{Success: true})

	case http.MethodDelete:
		if err := h.accounts.ClearTasks(r.Context(), username); err != nil {
			h.fail(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
	}
}

func (h *AccountHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := account.KindOf(err)
	status := statusFor(kind)

	var accErr *account.Error
	message := "Database error"
	if errors.As(err, &accErr) && kind != account.KindStore {
		message = accErr.Message
	}

	f := respond.Failure{Error: message, Kind: string(kind)}
	if kind == account.KindStore {
		h.logger.ErrorContext(r.Context(), "account operation failed",
			"method", r.Method,
			"route", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"err", err,
		)
		f.Message = rootCause(err).Error()
	}
	respond.Fail(w, status, f)
}

func statusFor(kind account.Kind) int {
	switch kind {
	case account.KindValidation:
		return http.StatusBadRequest
	case account.KindAuthentication:
		return http.StatusUnauthorized
	case account.KindNotFound:
		return http.StatusNotFound
	case account.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter) {
	respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
