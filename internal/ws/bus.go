package ws

import (
	"context"

	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/observability"
)

// RemotePublisher relays a room payload to peer instances. The redis pub/sub
// router is the production implementation; single-instance deployments and
// tests pass nil.
type RemotePublisher interface {
	Publish(ctx context.Context, room string, payload []byte) error
}

// Bus is the one fan-out path for room events: local registry delivery plus
// cross-instance relay.
type Bus struct {
	registry *Registry
	remote   RemotePublisher
}

func NewBus(registry *Registry, remote RemotePublisher) *Bus {
	return &Bus{registry: registry, remote: remote}
}

// Broadcast sends the event to every session in the room on every instance,
// including the sender's own connections.
func (b *Bus) Broadcast(ctx context.Context, room, event string, data interface{}) {
	b.broadcast(ctx, room, event, data, "")
}

// BroadcastExcept skips one local session. Typing signals use this so the
// sender does not get its own echo.
func (b *Bus) BroadcastExcept(ctx context.Context, room, event string, data interface{}, excludeSessionID string) {
	b.broadcast(ctx, room, event, data, excludeSessionID)
}

func (b *Bus) broadcast(ctx context.Context, room, event string, data interface{}, excludeSessionID string) {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		observability.GetLogger(ctx).Error("bus: failed to encode frame",
			zap.String("event", event), zap.Error(err))
		return
	}

	b.registry.Broadcast(room, payload, excludeSessionID)

	if b.remote != nil {
		if err := b.remote.Publish(ctx, room, payload); err != nil {
			observability.GetLogger(ctx).Error("bus: remote publish failed",
				zap.String("room", room), zap.Error(err))
		}
	}
}

// DeliverRemote hands a payload published by a peer instance to the local
// room members. Wire it as the router's subscribe handler.
func (b *Bus) DeliverRemote(room string, payload []byte) {
	b.registry.Broadcast(room, payload, "")
}
