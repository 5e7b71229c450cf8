package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes deliveries to the log instead of sending them. The
// code itself is only logged when revealCode is set.
type LogNotifier struct {
	log        *zap.SugaredLogger
	revealCode bool
}

// NewLogNotifier creates a LogNotifier writing to log.
func NewLogNotifier(log *zap.SugaredLogger, revealCode bool) *LogNotifier {
	return &LogNotifier{log: log, revealCode: revealCode}
}

func (n *LogNotifier) Deliver(_ context.Context, d Delivery) error {
	fields := []interface{}{
		"channel", d.Channel,
		"destination", d.Destination,
		"expires_at", d.ExpiresAt,
	}
	if n.revealCode {
		fields = append(fields, "code", d.Code)
	}
	n.log.Infow("OTP delivery", fields...)
	return nil
}
