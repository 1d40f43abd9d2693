package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pershin-daniil/MeetingPlanner/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return now.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

// memStore mirrors the pgstore contract in memory: guarded complete,
// reschedule only while scheduled, notes append-only.
type memStore struct {
	mu       sync.Mutex
	meetings map[string]models.Meeting
}

func newMemStore() *memStore {
	return &memStore{meetings: make(map[string]models.Meeting)}
}

func (s *memStore) Meetings(_ context.Context) ([]models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meetings := make([]models.Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		meetings = append(meetings, m)
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].Start.Before(meetings[j].Start) })
	return meetings, nil
}

func (s *memStore) Meeting(_ context.Context, id string) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrMeetingNotFound
	}
	return m, nil
}

func (s *memStore) CreateMeeting(_ context.Context, meeting models.Meeting) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meeting.ID = uuid.NewString()
	meeting.Status = models.StatusScheduled
	meeting.Notes = []models.Note{}
	meeting.CreatedAt = time.Now()
	meeting.UpdatedAt = meeting.CreatedAt
	s.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (s *memStore) RescheduleMeeting(_ context.Context, id, title string, start, end time.Time) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrMeetingNotFound
	}
	if m.Status != models.StatusScheduled {
		return models.Meeting{}, models.ErrInvalidTransition
	}
	m.Title, m.Start, m.End = title, start, end
	m.UpdatedAt = time.Now()
	s.meetings[id] = m
	return m, nil
}

func (s *memStore) CancelMeeting(_ context.Context, id string, cancelledAt time.Time) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrMeetingNotFound
	}
	m.Status = models.StatusCancelled
	m.CancelledAt = &cancelledAt
	m.UpdatedAt = time.Now()
	s.meetings[id] = m
	return m, nil
}

func (s *memStore) CompleteMeeting(_ context.Context, id string) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrMeetingNotFound
	}
	if m.Status == models.StatusCancelled {
		return models.Meeting{}, models.ErrInvalidTransition
	}
	m.Status = models.StatusCompleted
	m.UpdatedAt = time.Now()
	s.meetings[id] = m
	return m, nil
}

func (s *memStore) AddNote(_ context.Context, id, text string) (models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, models.ErrMeetingNotFound
	}
	m.Notes = append(m.Notes, models.Note{Text: text, CreatedAt: time.Now()})
	m.UpdatedAt = time.Now()
	s.meetings[id] = m
	return m, nil
}

func newTestService() (*MeetingService, *memStore) {
	store := newMemStore()
	svc := NewMeetingService(logrus.New(), store)
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestCreateMeeting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateMeeting(ctx, "standup", at(1, 0), at(2, 0))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, models.StatusScheduled, created.Status)
	require.Empty(t, created.Notes)

	meetings, err := svc.Meetings(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	require.Equal(t, created.ID, meetings[0].ID)
}

func TestCreateMeetingInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateMeeting(ctx, "   ", at(1, 0), at(2, 0))
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.CreateMeeting(ctx, "standup", at(2, 0), at(1, 0))
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCreateMeetingInPast(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateMeeting(ctx, "standup", now.Add(-time.Second), at(1, 0))
	require.ErrorIs(t, err, models.ErrPastSchedule)
}

func TestCreateMeetingConflict(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	// A at [10:00, 11:00)
	_, err := svc.CreateMeeting(ctx, "A", at(1, 0), at(2, 0))
	require.NoError(t, err)

	// B at [10:30, 11:30) overlaps A
	_, err = svc.CreateMeeting(ctx, "B", at(1, 30), at(2, 30))
	require.ErrorIs(t, err, models.ErrTimeConflict)

	// C at [11:00, 12:00) is back to back with A
	_, err = svc.CreateMeeting(ctx, "C", at(2, 0), at(3, 0))
	require.NoError(t, err)
}

func TestRescheduleMeeting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateMeeting(ctx, "standup", at(1, 0), at(2, 0))
	require.NoError(t, err)

	t.Run("shift within own slot", func(t *testing.T) {
		updated, err := svc.RescheduleMeeting(ctx, created.ID, "standup", at(1, 30), at(2, 30))
		require.NoError(t, err)
		require.Equal(t, at(1, 30), updated.Start)
		require.Equal(t, models.StatusScheduled, updated.Status)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.RescheduleMeeting(ctx, uuid.NewString(), "standup", at(4, 0), at(5, 0))
		require.ErrorIs(t, err, models.ErrMeetingNotFound)
	})

	t.Run("conflict with another meeting", func(t *testing.T) {
		other, err := svc.CreateMeeting(ctx, "review", at(4, 0), at(5, 0))
		require.NoError(t, err)
		_, err = svc.RescheduleMeeting(ctx, other.ID, "review", at(2, 0), at(3, 0))
		require.ErrorIs(t, err, models.ErrTimeConflict)
	})

	t.Run("into the past", func(t *testing.T) {
		_, err := svc.RescheduleMeeting(ctx, created.ID, "standup", now.Add(-time.Hour), now)
		require.ErrorIs(t, err, models.ErrPastSchedule)
	})

	t.Run("cancelled meeting", func(t *testing.T) {
		_, err := svc.CancelMeeting(ctx, created.ID)
		require.NoError(t, err)
		_, err = svc.RescheduleMeeting(ctx, created.ID, "standup", at(6, 0), at(7, 0))
		require.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestCancelMeeting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateMeeting(ctx, "standup", at(1, 0), at(2, 0))
	require.NoError(t, err)

	cancelled, err := svc.CancelMeeting(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// repeated cancel keeps the status
	again, err := svc.CancelMeeting(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, again.Status)
	require.NotNil(t, again.CancelledAt)

	_, err = svc.CancelMeeting(ctx, uuid.NewString())
	require.ErrorIs(t, err, models.ErrMeetingNotFound)
}

func TestCompleteMeeting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateMeeting(ctx, "standup", at(1, 0), at(2, 0))
	require.NoError(t, err)

	completed, err := svc.CompleteMeeting(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, completed.Status)

	_, err = svc.CompleteMeeting(ctx, uuid.NewString())
	require.ErrorIs(t, err, models.ErrMeetingNotFound)
}

func TestCompleteCancelledMeeting(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	created, err := svc.CreateMeeting(ctx, "standup", at(1, 0), at(2, 0))
	require.NoError(t, err)
	cancelled, err := svc.CancelMeeting(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.CompleteMeeting(ctx, created.ID)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	// record left unchanged
	got, err := store.Meeting(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, got.Status)
	require.Equal(t, cancelled.CancelledAt, got.CancelledAt)
}

func TestAddNote(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateMeeting(ctx, "standup", at(1, 0), at(2, 0))
	require.NoError(t, err)

	before := time.Now()
	updated, err := svc.AddNote(ctx, created.ID, "review")
	require.NoError(t, err)
	require.Len(t, updated.Notes, 1)

	got, err := svc.Meeting(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	require.Equal(t, "review", got.Notes[0].Text)
	require.False(t, got.Notes[0].CreatedAt.Before(before))

	_, err = svc.AddNote(ctx, created.ID, "  ")
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.AddNote(ctx, uuid.NewString(), "review")
	require.ErrorIs(t, err, models.ErrMeetingNotFound)
}
