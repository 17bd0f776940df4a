package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/movie-booking-api/internal/config"
	"github.com/iliyamo/movie-booking-api/internal/queue"
)

// The consumer drains the booking.events queue into <BOOKING_LOG_DIR>/booking.log.
func main() {
	_ = godotenv.Load()

	logger := log.New("booking-consumer")
	logger.SetLevel(config.ParseLevel(os.Getenv("LOG_LEVEL")))

	ev := config.LoadEventsConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("consuming %s into %s", queue.QueueName, ev.LogDir)
	err := queue.NewConsumer(ev.URL, ev.LogDir, logger).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal(err)
	}
}
