package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pershin-daniil/MeetingPlanner/pkg/models"
)

type App interface {
	Meetings(ctx context.Context) ([]models.Meeting, error)
	CreateMeeting(ctx context.Context, title string, start, end time.Time) (models.Meeting, error)
	RescheduleMeeting(ctx context.Context, id, title string, start, end time.Time) (models.Meeting, error)
	CancelMeeting(ctx context.Context, id string) (models.Meeting, error)
	CompleteMeeting(ctx context.Context, id string) (models.Meeting, error)
	AddNote(ctx context.Context, id, text string) (models.Meeting, error)
}

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request) {
	_, err := fmt.Fprintf(w, "%s\n", s.version)
	if err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

func (s *Server) getMeetingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meetings, err := s.app.Meetings(ctx)
	if err != nil {
		s.log.Warnf("err during getting meetings: %v", err)
		s.writeResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.writeResponse(w, http.StatusOK, meetings)
}

func (s *Server) createMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || req.Start == nil || req.End == nil {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("title, start and end are required: %w", models.ErrInvalidInput))
		return
	}
	created, err := s.app.CreateMeeting(ctx, *req.Title, *req.Start, *req.End)
	if err != nil {
		s.writeError(w, "creating meeting", err)
		return
	}
	s.writeResponse(w, http.StatusCreated, created)
}

func (s *Server) rescheduleMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := s.meetingID(w, r)
	if !ok {
		return
	}
	var req models.MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || req.Start == nil || req.End == nil {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("title, start and end are required: %w", models.ErrInvalidInput))
		return
	}
	updated, err := s.app.RescheduleMeeting(ctx, id, *req.Title, *req.Start, *req.End)
	if err != nil {
		s.writeError(w, "rescheduling meeting", err)
		return
	}
	s.writeResponse(w, http.StatusOK, updated)
}

func (s *Server) cancelMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := s.meetingID(w, r)
	if !ok {
		return
	}
	cancelled, err := s.app.CancelMeeting(ctx, id)
	if err != nil {
		s.writeError(w, "cancelling meeting", err)
		return
	}
	s.writeResponse(w, http.StatusOK, cancelled)
}

func (s *Server) completeMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := s.meetingID(w, r)
	if !ok {
		return
	}
	completed, err := s.app.CompleteMeeting(ctx, id)
	if err != nil {
		s.writeError(w, "completing meeting", err)
		return
	}
	s.writeResponse(w, http.StatusOK, completed)
}

func (s *Server) addNoteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := s.meetingID(w, r)
	if !ok {
		return
	}
	var req models.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.Text == nil {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("text is required: %w", models.ErrInvalidInput))
		return
	}
	updated, err := s.app.AddNote(ctx, id, *req.Text)
	if err != nil {
		s.writeError(w, "adding note", err)
		return
	}
	s.writeResponse(w, http.StatusOK, updated)
}

func (s *Server) meetingID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		s.writeResponse(w, http.StatusBadRequest, fmt.Errorf("invalid meeting id: %w", models.ErrInvalidInput))
		return "", false
	}
	return id, true
}

func (s *Server) writeError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, models.ErrMeetingNotFound):
		s.writeResponse(w, http.StatusNotFound, err)
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrPastSchedule),
		errors.Is(err, models.ErrTimeConflict),
		errors.Is(err, models.ErrInvalidTransition):
		s.writeResponse(w, http.StatusBadRequest, err)
	default:
		s.log.Warnf("err during %s: %v", action, err)
		s.writeResponse(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if x, ok := data.(error); ok {
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: x.Error()}); err != nil {
			s.log.Warnf("err during encoding error: %v", err)
		}
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("err during encoding response: %v", err)
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
