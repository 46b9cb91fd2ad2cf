package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/auth"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   accountResponse `json:"account"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type completeResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type promoteRequest struct {
	Email string `json:"email"`
}

type purgeRequest struct {
	Before time.Time `json:"before"`
}

type purgeResponse struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
	Archive string    `json:"archive,omitempty"`
}

type attemptResponse struct {
	ID         int64             `json:"id"`
	AccountID  *int64            `json:"account_id"`
	Email      string            `json:"email"`
	ResultCode models.ResultCode `json:"result_code"`
	CreatedAt  time.Time         `json:"created_at"`
}

type productRequest struct {
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

type productResponse struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{ID: a.ID, Email: a.Email, IsAdmin: a.IsAdmin, CreatedAt: a.CreatedAt}
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	account, err := s.auth.CreateAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	account, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if account == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := s.clock.Now()
	token, err := auth.GenerateToken(account, s.jwtSecret, s.sessionTTL, now)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresAt: now.Add(s.sessionTTL),
		Account:   toAccountResponse(account),
	})
}

func (s *Server) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": services.ResetRequestedMessage})
}

func (s *Server) completePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req completeResetRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.auth.CompletePasswordReset(r.Context(), req.Token, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loginHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	rows, err := s.auth.LoginHistory(r.Context(), actorFrom(r.Context()), accountID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]attemptResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, attemptResponse{
			ID:         a.ID,
			AccountID:  a.AccountID,
			Email:      a.Email,
			ResultCode: a.ResultCode,
			CreatedAt:  a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) promote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if !decode(w, r, &req) {
		return
	}

	account, err := s.auth.PromoteToAdmin(r.Context(), actorFrom(r.Context()), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) purge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Before.IsZero() {
		writeError(w, http.StatusBadRequest, "before is required")
		return
	}

	res, err := s.auth.PurgeLoginAttempts(r.Context(), actorFrom(r.Context()), req.Before)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purgeResponse{Deleted: res.Deleted, Cutoff: res.Cutoff, Archive: res.Location})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{ID: p.ID, Title: p.Title, Price: p.Price, CreatedAt: p.CreatedAt})
}

func (s *Server) addProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := s.catalog.AddProduct(r.Context(), actorFrom(r.Context()), req.Title, req.Price)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, productResponse{ID: p.ID, Title: p.Title, Price: p.Price, CreatedAt: p.CreatedAt})
}

// fail maps a service error onto a status. Unexpected errors are logged and
// reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidResetToken), errors.Is(err, common.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error(r.Context(), "request failed", "request_id", requestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
