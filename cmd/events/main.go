package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telemed-chat-be/pkg/events"
	pktNats "telemed-chat-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Tails the chat event stream. Useful for verifying that the consumer
// pipeline publishes CHAT_MESSAGE_SENT events while developing the
// downstream notification service.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	sub, err := pktNats.NewSubscriber(natsURL)
	if err != nil {
		log.Fatal("Error: Failed to connect to NATS:", err)
	}
	defer sub.Close()

	err = sub.Subscribe("chat.>", "chat-events-tail", func(ctx context.Context, event events.Event) error {
		color.Cyan("%s %s", event.Timestamp().Format(time.RFC3339), event.EventType())
		for k, v := range event.Payload() {
			color.White("  %s: %v", k, v)
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error: Failed to subscribe:", err)
	}

	color.Green("Tailing chat.> on %s (Ctrl+C to stop)", natsURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
}
