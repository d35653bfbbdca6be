package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"ghost/internal/bus"
	"ghost/internal/logging"
)

// Console is the stdin/stdout chat surface: one line in, agent messages
// out.
type Console struct {
	agentName string
	userName  string
	events    *bus.Bus
	in        io.Reader
	out       io.Writer
	log       *zap.Logger
}

func NewConsole(agentName, userName string, events *bus.Bus, in io.Reader, out io.Writer) *Console {
	return &Console{
		agentName: agentName,
		userName:  userName,
		events:    events,
		in:        in,
		out:       out,
		log:       logging.For(logging.CategoryTransport),
	}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Send(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "%s: %s\n", c.agentName, text)
	return err
}

// Run reads lines until EOF or cancellation and publishes each as a
// MessageReceived event.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		err := c.events.Publish(bus.MessageReceived{
			Base:     bus.NewBase(),
			UserName: c.userName,
			Content:  line,
		})
		if err != nil {
			c.log.Error("failed to publish inbound message", zap.Error(err))
		}
	}
	return scanner.Err()
}
