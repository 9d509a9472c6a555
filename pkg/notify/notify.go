// Package notify delivers outbound messages over email and SMS.
package notify

import (
	"context"
	"fmt"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type Message struct {
	Channel Channel
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Router dispatches a message to the sender registered for its channel.
type Router struct {
	senders map[Channel]Sender
}

func NewRouter() *Router {
	return &Router{senders: make(map[Channel]Sender)}
}

// Register binds sender to channel, replacing any previous one.
func (r *Router) Register(channel Channel, sender Sender) *Router {
	r.senders[channel] = sender
	return r
}

func (r *Router) Has(channel Channel) bool {
	_, ok := r.senders[channel]
	return ok
}

func (r *Router) Send(ctx context.Context, msg Message) error {
	sender, ok := r.senders[msg.Channel]
	if !ok {
		return fmt.Errorf("no sender for channel %q", msg.Channel)
	}
	return sender.Send(ctx, msg)
}
