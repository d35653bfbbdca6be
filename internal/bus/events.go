// Package bus is the agent's internal event backbone.
//
// Services never call each other for notifications; they publish events
// here and subscribe to what they care about. Dispatch is single-threaded
// so handlers observe events in publish order.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeMessageReceived       = "message_received"
	TypeResponseGenerated     = "response_generated"
	TypeAutonomousMessageSent = "autonomous_message_sent"
	TypeProactiveImpulse      = "proactive_impulse"
	TypeEmotionalStateChanged = "emotional_state_changed"
	TypeSystemResourceAlert   = "system_resource_alert"
	TypeCryostasisActivated   = "cryostasis_activated"
	TypeCryostasisDeactivated = "cryostasis_deactivated"
	TypeUserActivityChanged   = "user_activity_changed"
)

// Event is anything the bus can carry.
type Event interface {
	Type() string
	EventID() string
	OccurredAt() time.Time
}

// Base carries the fields every event shares. Embed it.
type Base struct {
	ID        string
	Timestamp time.Time
}

// NewBase stamps a fresh event identity.
func NewBase() Base {
	return Base{ID: uuid.NewString(), Timestamp: time.Now().UTC()}
}

func (b Base) EventID() string       { return b.ID }
func (b Base) OccurredAt() time.Time { return b.Timestamp }

// MessageReceived fires when the owner sends the agent a message.
type MessageReceived struct {
	Base
	UserName string
	Content  string
}

func (MessageReceived) Type() string { return TypeMessageReceived }

// ResponseGenerated fires when the pipeline produces a reply.
type ResponseGenerated struct {
	Base
	Content   string
	Emotion   string
	Intent    string
	InReplyTo string
}

func (ResponseGenerated) Type() string { return TypeResponseGenerated }

// AutonomousMessageSent fires when the agent speaks unprompted.
type AutonomousMessageSent struct {
	Base
	Content string
	Reason  string
}

func (AutonomousMessageSent) Type() string { return TypeAutonomousMessageSent }

// ProactiveImpulse fires when an unmet need forms an intention.
type ProactiveImpulse struct {
	Base
	Desire string
	Action string
	Reason string
}

func (ProactiveImpulse) Type() string { return TypeProactiveImpulse }

// EmotionalStateChanged fires on every PAD update. It carries both
// vectors so subscribers can see the direction of the move, not just
// the destination.
type EmotionalStateChanged struct {
	Base
	Pleasure     float64
	Arousal      float64
	Dominance    float64
	OldPleasure  float64
	OldArousal   float64
	OldDominance float64
	GrudgeMode   bool
	Reason       string
}

func (EmotionalStateChanged) Type() string { return TypeEmotionalStateChanged }

// SystemResourceAlert fires when the probe crosses a threshold.
type SystemResourceAlert struct {
	Base
	Resource string
	Value    float64
	Limit    float64
}

func (SystemResourceAlert) Type() string { return TypeSystemResourceAlert }

// CryostasisActivated fires when the agent hibernates.
type CryostasisActivated struct {
	Base
	Reason  string
	FreedMB float64
}

func (CryostasisActivated) Type() string { return TypeCryostasisActivated }

// CryostasisDeactivated fires when the agent wakes.
type CryostasisDeactivated struct {
	Base
	LoadTimeMS int64
}

func (CryostasisDeactivated) Type() string { return TypeCryostasisDeactivated }

// UserActivityChanged fires when a sensor sees the owner switch between
// activities such as Idle, Gaming, or Coding.
type UserActivityChanged struct {
	Base
	Old     string
	New     string
	AppName string
}

func (UserActivityChanged) Type() string { return TypeUserActivityChanged }
