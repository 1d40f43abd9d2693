package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pershin-daniil/MeetingPlanner/pkg/metrics"
	"github.com/pershin-daniil/MeetingPlanner/pkg/models"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrations embed.FS

const retries = 3

type Store struct {
	log *logrus.Entry
	db  *sqlx.DB
}

func NewStore(ctx context.Context, log *logrus.Logger, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		log: log.WithField("component", "pgstore"),
		db:  db,
	}, nil
}

func (s *Store) Migrate(direction migrate.MigrationDirection) error {
	assetDir := func() func(string) ([]string, error) {
		return func(path string) ([]string, error) {
			dirEntry, er := migrations.ReadDir(path)
			if er != nil {
				return nil, er
			}
			entries := make([]string, 0)
			for _, e := range dirEntry {
				entries = append(entries, e.Name())
			}

			return entries, nil
		}
	}()
	asset := migrate.AssetMigrationSource{
		Asset:    migrations.ReadFile,
		AssetDir: assetDir,
		Dir:      "migrations",
	}
	_, err := migrate.Exec(s.db.DB, "postgres", asset, direction)
	return err
}

func (s *Store) observe(method string, start time.Time, err *error) {
	metrics.PgDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if *err != nil {
		metrics.PgErrCount.WithLabelValues(method).Inc()
	}
}

func (s *Store) Meetings(ctx context.Context) (_ []models.Meeting, err error) {
	defer s.observe("meetings", time.Now(), &err)
	var meetings []models.Meeting
	for i := 0; i < retries; i++ {
		if err = s.db.SelectContext(ctx, &meetings, `SELECT * FROM meetings ORDER BY start_at`); err != nil {
			continue
		}
		if meetings == nil {
			meetings = []models.Meeting{}
		}
		if err = s.attachNotes(ctx, meetings); err != nil {
			return nil, err
		}
		return meetings, nil
	}
	return nil, fmt.Errorf("err getting meetings: %w", err)
}

func (s *Store) Meeting(ctx context.Context, id string) (_ models.Meeting, err error) {
	defer s.observe("meeting", time.Now(), &err)
	var meeting models.Meeting
	query := `
SELECT * FROM meetings
WHERE id = $1;`
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &meeting, query, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Meeting{}, models.ErrMeetingNotFound
		case err != nil:
			continue
		}
		if err = s.loadNotes(ctx, &meeting); err != nil {
			return models.Meeting{}, err
		}
		return meeting, nil
	}
	return models.Meeting{}, fmt.Errorf("err getting meeting %s: %w", id, err)
}

func (s *Store) CreateMeeting(ctx context.Context, meeting models.Meeting) (_ models.Meeting, err error) {
	defer s.observe("create_meeting", time.Now(), &err)
	var created models.Meeting
	query := `
INSERT INTO meetings (title, start_at, end_at, status)
VALUES ($1, $2, $3, $4)
RETURNING *;`
	for i := 0; i < retries; i++ {
		if err = s.db.GetContext(ctx, &created, query, meeting.Title, meeting.Start, meeting.End, models.StatusScheduled); err != nil {
			continue
		}
		created.Notes = []models.Note{}
		return created, nil
	}
	return models.Meeting{}, fmt.Errorf("err creating meeting: %w", err)
}

func (s *Store) RescheduleMeeting(ctx context.Context, id, title string, start, end time.Time) (_ models.Meeting, err error) {
	defer s.observe("reschedule_meeting", time.Now(), &err)
	var updated models.Meeting
	query := `
UPDATE meetings
SET title = $2,
	start_at = $3,
	end_at = $4,
	updated_at = now()
WHERE id = $1 AND status = $5
RETURNING *;`
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &updated, query, id, title, start, end, models.StatusScheduled)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Meeting{}, s.rescheduleMiss(ctx, id)
		case err != nil:
			continue
		}
		if err = s.loadNotes(ctx, &updated); err != nil {
			return models.Meeting{}, err
		}
		return updated, nil
	}
	return models.Meeting{}, fmt.Errorf("err rescheduling meeting %s: %w", id, err)
}

// rescheduleMiss tells a missing meeting apart from one already in a
// terminal status, since the guarded UPDATE matches neither.
func (s *Store) rescheduleMiss(ctx context.Context, id string) error {
	var status string
	err := s.db.GetContext(ctx, &status, `SELECT status FROM meetings WHERE id = $1`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrMeetingNotFound
	case err != nil:
		return fmt.Errorf("err checking meeting %s: %w", id, err)
	}
	return fmt.Errorf("meeting is %s: %w", status, models.ErrInvalidTransition)
}

func (s *Store) CancelMeeting(ctx context.Context, id string, cancelledAt time.Time) (_ models.Meeting, err error) {
	defer s.observe("cancel_meeting", time.Now(), &err)
	var cancelled models.Meeting
	query := `
UPDATE meetings
SET status = $2,
	cancelled_at = $3,
	updated_at = now()
WHERE id = $1
RETURNING *;`
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &cancelled, query, id, models.StatusCancelled, cancelledAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Meeting{}, models.ErrMeetingNotFound
		case err != nil:
			continue
		}
		if err = s.loadNotes(ctx, &cancelled); err != nil {
			return models.Meeting{}, err
		}
		return cancelled, nil
	}
	return models.Meeting{}, fmt.Errorf("err cancelling meeting %s: %w", id, err)
}

// CompleteMeeting runs the status check and the write in one transaction so
// no other write on the same record can interleave.
func (s *Store) CompleteMeeting(ctx context.Context, id string) (_ models.Meeting, err error) {
	defer s.observe("complete_meeting", time.Now(), &err)
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err starting tx: %w", err)
	}
	defer func() {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			s.log.Warnf("err rolling back tx: %v", er)
		}
	}()
	var completed models.Meeting
	err = tx.GetContext(ctx, &completed, `SELECT * FROM meetings WHERE id = $1 FOR UPDATE`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Meeting{}, models.ErrMeetingNotFound
	case err != nil:
		return models.Meeting{}, fmt.Errorf("err getting meeting %s: %w", id, err)
	}
	if completed.Status == models.StatusCancelled {
		return models.Meeting{}, fmt.Errorf("cannot complete a cancelled meeting: %w", models.ErrInvalidTransition)
	}
	query := `
UPDATE meetings
SET status = $2,
	updated_at = now()
WHERE id = $1
RETURNING *;`
	if err = tx.GetContext(ctx, &completed, query, id, models.StatusCompleted); err != nil {
		return models.Meeting{}, fmt.Errorf("err completing meeting %s: %w", id, err)
	}
	if err = tx.Commit(); err != nil {
		return models.Meeting{}, fmt.Errorf("err committing tx: %w", err)
	}
	if err = s.loadNotes(ctx, &completed); err != nil {
		return models.Meeting{}, err
	}
	return completed, nil
}

func (s *Store) AddNote(ctx context.Context, id, text string) (_ models.Meeting, err error) {
	defer s.observe("add_note", time.Now(), &err)
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err starting tx: %w", err)
	}
	defer func() {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			s.log.Warnf("err rolling back tx: %v", er)
		}
	}()
	var updated models.Meeting
	query := `
UPDATE meetings
SET updated_at = now()
WHERE id = $1
RETURNING *;`
	err = tx.GetContext(ctx, &updated, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Meeting{}, models.ErrMeetingNotFound
	case err != nil:
		return models.Meeting{}, fmt.Errorf("err updating meeting %s: %w", id, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO notes (meeting_id, text) VALUES ($1, $2)`, id, text); err != nil {
		return models.Meeting{}, fmt.Errorf("err adding note to meeting %s: %w", id, err)
	}
	if err = tx.Commit(); err != nil {
		return models.Meeting{}, fmt.Errorf("err committing tx: %w", err)
	}
	if err = s.loadNotes(ctx, &updated); err != nil {
		return models.Meeting{}, err
	}
	return updated, nil
}

// PurgeCancelled is the only deletion path: cancelled meetings past the
// retention cutoff are removed, notes go with them by cascade.
func (s *Store) PurgeCancelled(ctx context.Context, olderThan time.Time) (_ int64, err error) {
	defer s.observe("purge_cancelled", time.Now(), &err)
	res, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE status = $1 AND cancelled_at <= $2`, models.StatusCancelled, olderThan)
	if err != nil {
		return 0, fmt.Errorf("err purging cancelled meetings: %w", err)
	}
	return res.RowsAffected()
}

type noteRow struct {
	MeetingID string    `db:"meeting_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *Store) loadNotes(ctx context.Context, meeting *models.Meeting) error {
	meeting.Notes = []models.Note{}
	var rows []noteRow
	query := `
SELECT meeting_id, text, created_at FROM notes
WHERE meeting_id = $1
ORDER BY created_at, id;`
	if err := s.db.SelectContext(ctx, &rows, query, meeting.ID); err != nil {
		return fmt.Errorf("err getting notes for meeting %s: %w", meeting.ID, err)
	}
	for _, row := range rows {
		meeting.Notes = append(meeting.Notes, models.Note{Text: row.Text, CreatedAt: row.CreatedAt})
	}
	return nil
}

func (s *Store) attachNotes(ctx context.Context, meetings []models.Meeting) error {
	if len(meetings) == 0 {
		return nil
	}
	ids := make([]string, 0, len(meetings))
	for i := range meetings {
		meetings[i].Notes = []models.Note{}
		ids = append(ids, meetings[i].ID)
	}
	query, args, err := sqlx.In(`SELECT meeting_id, text, created_at FROM notes WHERE meeting_id IN (?) ORDER BY created_at, id`, ids)
	if err != nil {
		return fmt.Errorf("err building notes query: %w", err)
	}
	var rows []noteRow
	if err = s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("err getting notes: %w", err)
	}
	byMeeting := make(map[string][]models.Note, len(meetings))
	for _, row := range rows {
		byMeeting[row.MeetingID] = append(byMeeting[row.MeetingID], models.Note{Text: row.Text, CreatedAt: row.CreatedAt})
	}
	for i := range meetings {
		if notes, ok := byMeeting[meetings[i].ID]; ok {
			meetings[i].Notes = notes
		}
	}
	return nil
}

func (s *Store) ResetTables(ctx context.Context, tables []string) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE TABLE `+strings.Join(tables, `, `)+` CASCADE`)
	return err
}
