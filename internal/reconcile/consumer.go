package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/trivedidharmik/pinder/internal/platform/kafka"
)

// ConsumerHandler adapts the reconciler to the transition topic. Malformed
// payloads are logged and committed rather than retried: redelivering a
// record that can never parse only wedges the partition.
func ConsumerHandler(reconciler *Reconciler, logger *slog.Logger) kafka.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, msg *kafka.Message) error {
		var event TransitionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("dropping malformed transition event",
				"topic", msg.Topic, "error", err)
			return nil
		}
		return reconciler.Process(ctx, event)
	}
}
