package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/officebites/gatetrack/internal/kafka"
	"github.com/officebites/gatetrack/internal/localstate"
)

var errPermissionDenied = errors.New("notification permission not granted")

// KafkaPusher delivers notifications by publishing them to a Kafka topic,
// keyed by tag; cmd/notifier is the consuming end. Permission is a local
// session setting kept in the durable state, since there is no browser to
// ask.
type KafkaPusher struct {
	producer kafka.Producer
	topic    string
	state    *localstate.Store
}

func NewKafkaPusher(producer kafka.Producer, topic string, state *localstate.Store) *KafkaPusher {
	return &KafkaPusher{
		producer: producer,
		topic:    topic,
		state:    state,
	}
}

func (p *KafkaPusher) PermissionState() Permission {
	switch Permission(p.state.Get(localstate.KeyNotificationPermission)) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

// RequestPermission grants unless the user has explicitly denied before.
// There is no interactive prompt on this channel.
func (p *KafkaPusher) RequestPermission(ctx context.Context) Permission {
	if p.PermissionState() == PermissionDenied {
		return PermissionDenied
	}
	p.state.Set(localstate.KeyNotificationPermission, string(PermissionGranted))
	return PermissionGranted
}

func (p *KafkaPusher) Show(ctx context.Context, n Notification) error {
	if p.PermissionState() != PermissionGranted {
		return errPermissionDenied
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return p.producer.SendMessage(ctx, p.topic, []byte(n.Tag), payload)
}
