package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the event type of an envelope. The set is extensible;
// the constants below are the kinds the platform emits today.
type Kind string

const (
	// Control kinds. KindHeartbeatResponse is in-band and never delivered
	// to subscribers.
	KindSystemStatus      Kind = "system_status"
	KindHeartbeatResponse Kind = "heartbeat_response"
	KindAuthentication    Kind = "authentication"

	// Domain kinds.
	KindClassificationProgress Kind = "classification_progress"
	KindInferenceResult        Kind = "inference_result"
	KindComplianceAlert        Kind = "compliance_alert"
	KindSystemHealth           Kind = "system_health"
)

// Priority orders envelopes for consumers. It is advisory metadata; the
// dispatcher orders by subscription priority, not envelope priority.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Metadata carries optional routing hints attached by the sender.
type Metadata struct {
	Source     string   `json:"source"`
	Priority   Priority `json:"priority"`
	TTLMillis  int64    `json:"ttl,omitempty"`        // Advisory; no component expires on it
	RetryCount int      `json:"retryCount,omitempty"` // Sender-side retry counter
}

// Envelope is a single unit of data exchanged over the stream.
type Envelope struct {
	ID        string          `json:"id"`
	Type      Kind            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Metadata  *Metadata       `json:"metadata,omitempty"`
}

// New constructs an outbound envelope with a generated ID and the current
// timestamp. The payload is marshaled once, here; a payload that cannot be
// marshaled is a caller bug surfaced as an error.
func New(kind Kind, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal payload: %w", err)
	}

	return Envelope{
		ID:        uuid.NewString(),
		Type:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// WithMetadata returns a copy of the envelope carrying the given metadata.
func (e Envelope) WithMetadata(md Metadata) Envelope {
	e.Metadata = &md
	return e
}

// Parse decodes a wire envelope. Envelopes missing an ID are assigned one so
// downstream components can rely on uniqueness.
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("parse envelope: missing type")
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	return env, nil
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}
