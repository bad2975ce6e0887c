package client

import (
	"encoding/json"
	"time"

	"github.com/stratalake/eventstream/internal/event"
	"github.com/stratalake/eventstream/internal/transport"
)

// heartbeatPayload carries the send timestamp so the response round-trip can
// be measured without correlating ids.
type heartbeatPayload struct {
	SentAt time.Time `json:"sent_at"`
}

// heartbeatLoop sends a liveness probe every HeartbeatInterval while the
// connection is up. A failed send means the socket is silently dead and is
// treated the same as an abnormal close.
func (c *Client) heartbeatLoop(tr transport.Transport, gen int, stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.sendHeartbeat(tr); err != nil {
				c.logger.Warn("heartbeat send failed", "error", err)
				c.handleConnectionLoss(gen, err)
				return
			}
		}
	}
}

func (c *Client) sendHeartbeat(tr transport.Transport) error {
	env, err := event.New(event.KindSystemStatus, heartbeatPayload{SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	data, err := env.Encode()
	if err != nil {
		return err
	}
	if err := tr.Send(data); err != nil {
		c.rec.Error()
		return err
	}
	c.rec.MessageSent(len(data))
	return nil
}

// onHeartbeatResponse is the dispatcher intercept for the heartbeat-response
// control kind. It samples round-trip latency into the bounded ring.
func (c *Client) onHeartbeatResponse(env event.Envelope) {
	var hb heartbeatPayload
	if err := json.Unmarshal(env.Payload, &hb); err != nil || hb.SentAt.IsZero() {
		c.logger.Debug("heartbeat response without sent_at, skipping sample")
		return
	}
	c.latency.Add(time.Since(hb.SentAt))
}
