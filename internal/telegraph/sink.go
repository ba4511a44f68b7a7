package telegraph

import (
	"context"
	"log"

	"github.com/zulandar/hookyard/internal/messaging"
)

// Sink returns a messaging.Sink that forwards every message to each
// adapter. Delivery is best effort: failures are logged, not returned.
func Sink(ctx context.Context, title string, adapters ...Adapter) messaging.Sink {
	return messaging.SinkFunc(func(msg messaging.Message) {
		out := FormatMessage(title, msg)
		for _, a := range adapters {
			if err := a.Send(ctx, out); err != nil {
				log.Printf("telegraph: %s send failed: %v", a.Name(), err)
			}
		}
	})
}
