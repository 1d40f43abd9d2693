package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pershin-daniil/MeetingPlanner/pkg/models"
	"github.com/pershin-daniil/MeetingPlanner/pkg/schedule"
	"github.com/sirupsen/logrus"
)

type Store interface {
	Meetings(ctx context.Context) ([]models.Meeting, error)
	Meeting(ctx context.Context, id string) (models.Meeting, error)
	CreateMeeting(ctx context.Context, meeting models.Meeting) (models.Meeting, error)
	RescheduleMeeting(ctx context.Context, id, title string, start, end time.Time) (models.Meeting, error)
	CancelMeeting(ctx context.Context, id string, cancelledAt time.Time) (models.Meeting, error)
	CompleteMeeting(ctx context.Context, id string) (models.Meeting, error)
	AddNote(ctx context.Context, id, text string) (models.Meeting, error)
}

type MeetingService struct {
	log   *logrus.Entry
	store Store
	now   func() time.Time
}

func NewMeetingService(log *logrus.Logger, store Store) *MeetingService {
	s := MeetingService{
		log:   log.WithField("component", "service"),
		store: store,
		now:   time.Now,
	}
	return &s
}

func (s *MeetingService) Meetings(ctx context.Context) ([]models.Meeting, error) {
	meetings, err := s.store.Meetings(ctx)
	if err != nil {
		return nil, fmt.Errorf("err getting meetings from store: %w", err)
	}
	return meetings, nil
}

func (s *MeetingService) Meeting(ctx context.Context, id string) (models.Meeting, error) {
	meeting, err := s.store.Meeting(ctx, id)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err getting meeting (id %s) from store: %w", id, err)
	}
	return meeting, nil
}

func (s *MeetingService) CreateMeeting(ctx context.Context, title string, start, end time.Time) (models.Meeting, error) {
	if strings.TrimSpace(title) == "" {
		return models.Meeting{}, fmt.Errorf("title is required: %w", models.ErrInvalidInput)
	}
	meetings, err := s.store.Meetings(ctx)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err getting meetings from store: %w", err)
	}
	if err = schedule.Validate(s.now(), start, end, meetings, ""); err != nil {
		return models.Meeting{}, err
	}
	created, err := s.store.CreateMeeting(ctx, models.Meeting{
		Title:  title,
		Start:  start,
		End:    end,
		Status: models.StatusScheduled,
	})
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err creating meeting: %w", err)
	}
	s.log.Infof("meeting %s scheduled from %s to %s", created.ID, created.Start, created.End)
	return created, nil
}

func (s *MeetingService) RescheduleMeeting(ctx context.Context, id, title string, start, end time.Time) (models.Meeting, error) {
	if strings.TrimSpace(title) == "" {
		return models.Meeting{}, fmt.Errorf("title is required: %w", models.ErrInvalidInput)
	}
	meetings, err := s.store.Meetings(ctx)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err getting meetings from store: %w", err)
	}
	current, ok := findMeeting(meetings, id)
	if !ok {
		return models.Meeting{}, fmt.Errorf("err rescheduling meeting (id %s): %w", id, models.ErrMeetingNotFound)
	}
	if models.Terminal(current.Status) {
		return models.Meeting{}, fmt.Errorf("meeting %s is %s: %w", id, current.Status, models.ErrInvalidTransition)
	}
	if err = schedule.Validate(s.now(), start, end, meetings, id); err != nil {
		return models.Meeting{}, err
	}
	updated, err := s.store.RescheduleMeeting(ctx, id, title, start, end)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err rescheduling meeting (id %s): %w", id, err)
	}
	s.log.Infof("meeting %s rescheduled to %s", id, updated.Start)
	return updated, nil
}

func (s *MeetingService) CancelMeeting(ctx context.Context, id string) (models.Meeting, error) {
	cancelled, err := s.store.CancelMeeting(ctx, id, s.now())
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err cancelling meeting (id %s): %w", id, err)
	}
	s.log.Infof("meeting %s cancelled", id)
	return cancelled, nil
}

func (s *MeetingService) CompleteMeeting(ctx context.Context, id string) (models.Meeting, error) {
	completed, err := s.store.CompleteMeeting(ctx, id)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err completing meeting (id %s): %w", id, err)
	}
	return completed, nil
}

func (s *MeetingService) AddNote(ctx context.Context, id, text string) (models.Meeting, error) {
	if strings.TrimSpace(text) == "" {
		return models.Meeting{}, fmt.Errorf("note text is required: %w", models.ErrInvalidInput)
	}
	updated, err := s.store.AddNote(ctx, id, text)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err adding note to meeting (id %s): %w", id, err)
	}
	return updated, nil
}

func findMeeting(meetings []models.Meeting, id string) (models.Meeting, bool) {
	for _, m := range meetings {
		if m.ID == id {
			return m, true
		}
	}
	return models.Meeting{}, false
}
