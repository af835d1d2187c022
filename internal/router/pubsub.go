package router

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/observability"
)

const roomChannel = "supportdesk:rooms"

// envelope carries a room broadcast between instances. Origin lets an
// instance skip its own publishes, which it already delivered locally.
type envelope struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// Router relays room broadcasts across instances over redis pub/sub, so two
// tabs of the same conversation landing on different instances still share a
// room.
type Router struct {
	client     *redis.Client
	instanceID string
}

func New(client *redis.Client, instanceID string) *Router {
	return &Router{client: client, instanceID: instanceID}
}

func (r *Router) Publish(ctx context.Context, room string, payload []byte) error {
	env, err := json.Marshal(envelope{
		Origin:  r.instanceID,
		Room:    room,
		Payload: payload,
	})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, roomChannel, env).Err()
}

func (r *Router) Subscribe(ctx context.Context, handler func(room string, payload []byte)) {
	pubsub := r.client.Subscribe(ctx, roomChannel)

	go func() {
		log := observability.GetLogger(ctx)
		log.Info("router: subscribed to channel", zap.String("channel", roomChannel))
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info("router: subscription loop stopping: context canceled")
				return
			case msg, ok := <-ch:
				if !ok {
					log.Warn("router: pubsub channel closed")
					return
				}

				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Error("router: bad envelope", zap.Error(err))
					continue
				}
				if env.Origin == r.instanceID {
					continue
				}
				handler(env.Room, env.Payload)
			}
		}
	}()
}
