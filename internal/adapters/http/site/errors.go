package site

import "errors"

// Sentinel kinds for page errors.
var (
	ErrInvalidScorelistID = errors.New("invalid scorelist id")
	ErrInvalidScoreID     = errors.New("invalid score id")
	ErrInvalidStageID     = errors.New("invalid stage id")
	ErrScoreNotFound      = errors.New("score not found")
)
