package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("INVALID_"+strings.ToUpper(name), "%s는 숫자여야 합니다", name).
			WithData(map[string]string{name: raw})
	}
	return n, nil
}

func (s *Server) handleBirthdayCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	cal, err := s.svc.BirthdayCalendar(r.Context(), viewer(r), year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"calendar": cal})
}

func (s *Server) handleBirthdaysOn(w http.ResponseWriter, r *http.Request) {
	day, err := s.svc.BirthdaysOn(r.Context(), viewer(r), chi.URLParam(r, "date"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, day)
}
