package controller

import (
	"context"
	"log"

	"github.com/gofiber/websocket/v2"

	"emailsuite/config"
	"emailsuite/models"
	"emailsuite/notify"
)

// HandleTrackingWS streams the user's tracking events and alerts over a
// websocket. It forwards whatever the publisher put on the user's Redis
// channels; events that fire while no socket is connected are simply lost.
func HandleTrackingWS(c *websocket.Conn) {
	defer c.Close()

	user, ok := c.Locals("user").(*models.User)
	if !ok {
		log.Printf("Tracking WS without authenticated user")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := config.RedisClient.Subscribe(ctx,
		notify.TrackingChannel(user.ID),
		notify.AlertChannel(user.ID),
	)
	defer pubsub.Close()

	// Forward Redis messages to the socket
	go func() {
		for msg := range pubsub.Channel() {
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("Tracking WS write for user %d: %v", user.ID, err)
				cancel()
				return
			}
		}
	}()

	// Read loop only exists to notice the client going away
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
