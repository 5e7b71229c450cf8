// Package notify hands one-time codes to an out-of-band delivery channel.
package notify

import (
	"context"
	"time"
)

// Channel names the medium a code should be delivered over.
type Channel string

const ChannelEmail Channel = "email"

// Delivery is a code addressed to one destination.
type Delivery struct {
	Channel     Channel
	Destination string
	Code        string
	ExpiresAt   time.Time
}

// Notifier dispatches deliveries. A nil error means the delivery was
// accepted for dispatch, not that it reached the recipient.
type Notifier interface {
	Deliver(ctx context.Context, d Delivery) error
}
