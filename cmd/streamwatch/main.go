// streamwatch connects to the task-queue event feed and streams parsed
// events to the console. Useful for checking what a room actually emits.
//
// Usage: go run ./cmd/streamwatch --url http://localhost:8080 --room dashboard
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/queuepulse/queuepulse/internal/event"
	"github.com/queuepulse/queuepulse/internal/stream"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "task-queue server base URL")
	room := flag.String("room", "dashboard", "room to subscribe to")
	token := flag.String("token", os.Getenv("QUEUE_TOKEN"), "bearer token")
	verbose := flag.Bool("verbose", false, "print full payload JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	manager := stream.NewManager(*baseURL, *room,
		stream.WithLogger(logger),
		stream.WithToken(*token),
		stream.WithMessageHandler(func(msg event.Message) {
			printEvent(msg, *verbose)
		}),
		stream.WithStateHandler(func(s stream.ConnectionState) {
			fmt.Fprintf(os.Stderr, "--- connection %s ---\n", s)
		}),
	)

	logger.Info("watching event feed", "url", *baseURL, "room", *room)

	<-ctx.Done()

	manager.Disconnect()

	stats := manager.Stats()
	fmt.Fprintf(os.Stderr, "received=%d parse_errors=%d reconnects=%d\n",
		stats.MessagesReceived, stats.ParseErrors, stats.Reconnects)
}

func printEvent(msg event.Message, verbose bool) {
	if verbose {
		payload, err := json.MarshalIndent(json.RawMessage(msg.Data), "", "  ")
		if err != nil {
			payload = msg.Data
		}
		fmt.Printf("%s %s [%s]\n%s\n", msg.Timestamp, msg.Type, msg.Type.Category(), payload)
		return
	}
	fmt.Printf("%s %s [%s]\n", msg.Timestamp, msg.Type, msg.Type.Category())
}
