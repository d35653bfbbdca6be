// Package transport connects the agent to its owner. Adapters turn
// inbound text into MessageReceived events and deliver outbound events
// as paced chat messages.
package transport

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ghost/internal/bus"
	"ghost/internal/logging"
	"ghost/internal/speech"
)

// Transport is one chat surface.
type Transport interface {
	Name() string
	// Send delivers one already-paced message to the owner.
	Send(ctx context.Context, text string) error
}

// Delivery subscribes to outbound events and fans each one out to all
// transports through the speech governor.
type Delivery struct {
	governor   *speech.Governor
	transports []Transport
	log        *zap.Logger

	// Injectable for tests that should not sleep.
	sleep func(ctx context.Context, d time.Duration)
}

func NewDelivery(governor *speech.Governor, transports ...Transport) *Delivery {
	return &Delivery{
		governor:   governor,
		transports: transports,
		log:        logging.For(logging.CategoryTransport),
		sleep:      sleepCtx,
	}
}

// Subscribe wires the delivery loop to the reply and initiation paths.
func (d *Delivery) Subscribe(ctx context.Context, events *bus.Bus) {
	events.Subscribe(bus.TypeResponseGenerated, func(ev bus.Event) {
		d.Deliver(ctx, ev.(bus.ResponseGenerated).Content)
	})
	events.Subscribe(bus.TypeAutonomousMessageSent, func(ev bus.Event) {
		d.Deliver(ctx, ev.(bus.AutonomousMessageSent).Content)
	})
}

// Deliver paces content into chunks and sends each to every transport.
func (d *Delivery) Deliver(ctx context.Context, content string) {
	for _, chunk := range d.governor.Pace(content) {
		d.sleep(ctx, chunk.Delay)
		if ctx.Err() != nil {
			return
		}
		for _, tr := range d.transports {
			if err := tr.Send(ctx, chunk.Text); err != nil {
				d.log.Error("send failed",
					zap.String("transport", tr.Name()),
					zap.Error(err))
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
