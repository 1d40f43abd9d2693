// Package schedule decides whether a candidate time range can be booked.
// It is pure: callers pass the evaluation instant and a snapshot of the
// known meetings, so the same checks serve both interactive feedback and
// the authoritative path before persisting.
package schedule

import (
	"fmt"
	"time"

	"github.com/pershin-daniil/MeetingPlanner/pkg/models"
)

// Conflict returns the first meeting whose [Start, End) range overlaps the
// candidate range, skipping excludeID. Status is ignored: cancelled and
// completed meetings still occupy their slot.
func Conflict(start, end time.Time, meetings []models.Meeting, excludeID string) (models.Meeting, bool) {
	for _, m := range meetings {
		if m.ID == excludeID {
			continue
		}
		if start.Before(m.End) && end.After(m.Start) {
			return m, true
		}
	}
	return models.Meeting{}, false
}

// Validate reports whether the candidate range is schedulable at instant now.
// excludeID is the id of the meeting being rescheduled, empty for a create.
func Validate(now, start, end time.Time, meetings []models.Meeting, excludeID string) error {
	if !start.Before(end) {
		return fmt.Errorf("start must be before end: %w", models.ErrInvalidInput)
	}
	if start.Before(now) {
		return models.ErrPastSchedule
	}
	if m, ok := Conflict(start, end, meetings, excludeID); ok {
		return fmt.Errorf("%w (meeting %s)", models.ErrTimeConflict, m.ID)
	}
	return nil
}
