package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Engagement errors
	ErrAlreadyCheckedInToday = errors.New("already checked in today")
	ErrInvalidGoal           = errors.New("goal is not in the active set")
	ErrUnknownGoal           = errors.New("goal is not in the catalog")
	ErrProgressOutOfRange    = errors.New("goal progress must be between 0 and 100")
	ErrEmptyTaskName         = errors.New("weekly task name is empty")
	ErrTaskNotFound          = errors.New("weekly task not found")

	// Matcher errors
	ErrEmptyCorpus      = errors.New("corpus has no entries")
	ErrCorpusLoad       = errors.New("corpus could not be loaded")
	ErrNoConfidentMatch = errors.New("no corpus question is similar enough")

	// Advisor errors
	ErrEmptyQuestion      = errors.New("question is empty")
	ErrServiceUnavailable = errors.New("generative text service unavailable")
	ErrInvalidFeedback    = errors.New("feedback must be one of the offered emojis")
	ErrRecordNotFound     = errors.New("chat record not found")

	// Resume errors
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrEmptyDocument       = errors.New("document contains no extractable text")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
)
