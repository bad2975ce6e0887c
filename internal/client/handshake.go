package client

import (
	"context"

	"github.com/stratalake/eventstream/internal/event"
	"github.com/stratalake/eventstream/internal/transport"
)

// authPayload is the post-connect authentication envelope body.
type authPayload struct {
	Token string `json:"token"`
}

// authenticate runs the optional handshake after every connect, reconnects
// included. The refresh callback is consulted first so a reconnect never
// replays an expired token; refresh failure falls back to the configured
// static token.
func (c *Client) authenticate(ctx context.Context, tr transport.Transport) {
	auth := c.cfg.Authentication
	if auth == nil {
		return
	}

	token := auth.Token
	if auth.RefreshToken != nil {
		fresh, err := auth.RefreshToken(ctx)
		switch {
		case err != nil:
			c.rec.Error()
			c.logger.Warn("token refresh failed, using configured token", "error", err)
		case fresh != "":
			token = fresh
		}
	}

	env, err := event.New(event.KindAuthentication, authPayload{Token: token})
	if err != nil {
		c.rec.Error()
		c.logger.Warn("failed to build authentication envelope", "error", err)
		return
	}
	data, err := env.Encode()
	if err != nil {
		c.rec.Error()
		c.logger.Warn("failed to encode authentication envelope", "error", err)
		return
	}
	if err := tr.Send(data); err != nil {
		c.rec.Error()
		c.logger.Warn("authentication handshake send failed", "error", err)
		return
	}
	c.rec.MessageSent(len(data))
	c.logger.Debug("authentication handshake sent")
}
