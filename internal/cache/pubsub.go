// ============================================================================
// cache/pubsub.go - Redis Pub/Sub Wrapper
// ============================================================================
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
)

// Publish launch event to multiple channels
func (r *RedisCache) PublishLaunch(ctx context.Context, launch *models.LaunchEvent) error {
	data, err := json.Marshal(launch)
	if err != nil {
		return err
	}

	// Publish to the firehose channel plus a mint-specific one
	channels := []string{
		constants.PubSubChannelLaunches,
		constants.PubSubChannelTokenPrefix + launch.Mint,
	}

	pipe := r.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// SubscribeLaunches streams launch events from the live channel. The returned
// channel closes when ctx is cancelled.
func (r *RedisCache) SubscribeLaunches(ctx context.Context) (<-chan *models.LaunchEvent, error) {
	pubsub := r.client.Subscribe(ctx, constants.PubSubChannelLaunches)

	// Confirm the subscription before handing out the channel
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", constants.PubSubChannelLaunches, err)
	}

	log.Printf("📡 Subscribed to channel: %s", constants.PubSubChannelLaunches)

	out := make(chan *models.LaunchEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var launch models.LaunchEvent
				if err := json.Unmarshal([]byte(msg.Payload), &launch); err != nil {
					log.Printf("Error unmarshaling launch: %v", err)
					continue
				}

				select {
				case out <- &launch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
