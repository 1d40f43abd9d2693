package models

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMeetingNotFound   = errors.New("meeting not found")
	ErrPastSchedule      = errors.New("cannot schedule in the past")
	ErrTimeConflict      = errors.New("time conflicts with another meeting")
	ErrInvalidTransition = errors.New("invalid status transition")
)
