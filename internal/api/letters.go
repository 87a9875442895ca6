package api

import (
	"net/http"

	"github.com/Kerhoff/moamoa/internal/service"
)

type createLetterRequest struct {
	EventID int64  `json:"eventId" validate:"required,gt=0"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateLetterRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleHomeLetters(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, 3, 10)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.HomeLetters(r.Context(), viewer(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, page)
}

func (s *Server) handleCreateLetter(w http.ResponseWriter, r *http.Request) {
	var req createLetterRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	letter, err := s.svc.CreateLetter(r.Context(), viewer(r), req.EventID, service.LetterInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondCreated(w, letter)
}

func (s *Server) handleGetLetter(w http.ResponseWriter, r *http.Request) {
	letterID, err := pathID(r, "letterId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	letter, err := s.svc.GetLetter(r.Context(), viewer(r), letterID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, letter)
}

func (s *Server) handleUpdateLetter(w http.ResponseWriter, r *http.Request) {
	letterID, err := pathID(r, "letterId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateLetterRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	letter, err := s.svc.UpdateLetter(r.Context(), viewer(r), letterID, service.LetterInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, letter)
}

func (s *Server) handleDeleteLetter(w http.ResponseWriter, r *http.Request) {
	letterID, err := pathID(r, "letterId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteLetter(r.Context(), viewer(r), letterID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]int64{"deletedLetterId": letterID})
}
