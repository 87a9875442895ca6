package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/auth"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/service"
	"github.com/Kerhoff/moamoa/pkg/logger"
)

const (
	resultSuccess = "SUCCESS"
	resultFail    = "FAIL"

	maxBodyBytes = 1 << 20
)

// envelope is the body of every API response.
type envelope struct {
	ResultType string     `json:"resultType"`
	Error      *errorBody `json:"error"`
	Success    any        `json:"success"`
}

type errorBody struct {
	ErrorCode string `json:"errorCode"`
	Reason    string `json:"reason"`
	Data      any    `json:"data"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) respondOK(w http.ResponseWriter, data any) {
	s.respondJSON(w, http.StatusOK, envelope{ResultType: resultSuccess, Success: data})
}

func (s *Server) respondCreated(w http.ResponseWriter, data any) {
	s.respondJSON(w, http.StatusCreated, envelope{ResultType: resultSuccess, Success: data})
}

func (s *Server) respondFail(w http.ResponseWriter, status int, code, reason string, data any) {
	s.respondJSON(w, status, envelope{
		ResultType: resultFail,
		Error:      &errorBody{ErrorCode: code, Reason: reason, Data: data},
	})
}

// respondError maps err onto the envelope. Server side failures are logged
// with their cause and reach the client with a generic reason only.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	status := appErr.Status()

	entry := logger.WithRequest(s.logger, middleware.GetReqID(r.Context()), auth.UserID(r.Context())).
		WithError(err).
		WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"code":   appErr.Code,
		})

	if status >= http.StatusInternalServerError && appErr.Kind != apperr.KindUnavailable {
		entry.Error("request failed")
		s.respondFail(w, status, "INTERNAL_ERROR", "서버 오류가 발생했습니다", nil)
		return
	}
	if status >= http.StatusInternalServerError {
		entry.Warn("dependency unavailable")
	} else {
		entry.Debug("request rejected")
	}
	s.respondFail(w, status, appErr.Code, appErr.Message, appErr.Data)
}

// decodeJSON reads the request body into dst and runs struct validation.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("INVALID_REQUEST", "요청 본문이 비어 있습니다")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("INVALID_REQUEST", "요청 본문이 비어 있습니다")
		}
		return apperr.Validation("INVALID_REQUEST", "잘못된 JSON 형식입니다").WithCause(err)
	}
	return s.validate.Struct(dst)
}

// pathID extracts a positive int64 path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("INVALID_ID", "%s는 양의 정수여야 합니다", name).
			WithData(map[string]string{name: raw})
	}
	return id, nil
}

// viewer returns the authenticated user id set by the auth middleware.
func viewer(r *http.Request) int64 {
	return auth.UserID(r.Context())
}

// pageRequest parses limit, cursor and direction for a swipe list.
func pageRequest(r *http.Request, def, max int) (service.PageRequest, error) {
	q := r.URL.Query()
	limit, err := pagination.ParseLimit(q.Get("limit"), def, 1, max)
	if err != nil {
		return service.PageRequest{}, err
	}
	dir, err := pagination.ParseDirection(q.Get("direction"))
	if err != nil {
		return service.PageRequest{}, err
	}
	return service.PageRequest{Cursor: q.Get("cursor"), Direction: dir, Limit: limit}, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
