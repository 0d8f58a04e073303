package model

import "time"

// Subscription topics published by the remote service.
const (
	TopicScorelistChange = "subscriptScorelistChange"
	TopicScoreChange     = "subscriptScoreChange"
)

// ChangeEvent is a live-update notification. It carries no payload: any
// event means "something changed, re-read".
type ChangeEvent struct {
	Topic      string
	ReceivedAt time.Time
	// Resync marks the synthetic event sent each time a subscription is
	// established. Changes made while it was down were never announced.
	Resync bool
}
