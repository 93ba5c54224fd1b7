package ingest

import (
	"github.com/potatomesh/meshingest/internal/domain"
	"github.com/potatomesh/meshingest/internal/uplink"
)

// dispatchMessage handles text messages, tapback reactions and encrypted
// frames.
func (d *Dispatcher) dispatchMessage(env *domain.Envelope) {
	text := ""
	if env.Text != nil {
		text = env.Text.Text
	}
	reaction := env.IsReaction() || env.PortName == "REACTION_APP"

	// A bare reply reference is still worth forwarding: the dashboard
	// threads it under the original message.
	if text == "" && !env.Encrypted && !reaction && env.ReplyID == 0 {
		d.drop(env, "no-message-payload")

		return
	}

	// The primary channel carries broadcast traffic; an addressed
	// plaintext frame on it is operator noise, not mesh chat.
	if env.Channel == 0 && !env.Encrypted && !reaction &&
		env.ToID != "" && env.ToID != domain.BroadcastAlias {
		d.drop(env, "skipped-direct-message")

		return
	}

	body := baseRecord(env)
	body["portnum"] = portnumValue(env)
	if text != "" {
		body["text"] = text
	}
	if env.Encrypted {
		body["encrypted"] = true
	} else if name, ok := d.session.ChannelName(env.Channel); ok {
		body["channel_name"] = name
	}
	if env.ReplyID != 0 {
		body["reply_id"] = env.ReplyID
	}
	if env.Emoji != 0 {
		body["emoji"] = env.Emoji
	}

	d.finish(body)
	d.queue.Enqueue(uplink.PathMessages, body, uplink.PriorityMessages)
}
