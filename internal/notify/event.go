// Package notify fans committed ledger events out to live subscribers.
package notify

import (
	"context"
	"time"
)

type EventType string

const (
	BetPlaced      EventType = "bet.placed"
	BetWon         EventType = "bet.won"
	BetLost        EventType = "bet.lost"
	BetCancelled   EventType = "bet.cancelled"
	BonusAwarded   EventType = "bonus.awarded"
	DepositCreated EventType = "deposit.created"
)

type Event struct {
	Type          EventType `json:"type"`
	PlayerID      string    `json:"player_id"`
	BetID         string    `json:"bet_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Balance       string    `json:"balance,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher delivers events that are already committed. Delivery is best
// effort; a failed publish never undoes the ledger change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Multi publishes to every publisher and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
