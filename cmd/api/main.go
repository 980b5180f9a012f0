package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/nyaaypath/nyaaypath/internal/app"
	"github.com/nyaaypath/nyaaypath/internal/seeder"
	"github.com/nyaaypath/nyaaypath/internal/version"
	"github.com/nyaaypath/nyaaypath/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	seedOnly := flag.Bool("seed", false, "run the database seeder and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()

	sd := seeders.New(application.DB, &application.Config)
	sd.Run()

	if *seedOnly {
		return nil
	}

	wk := worker.New(&worker.Worker{
		KafkaStream:  application.Kafka,
		DB:           application.DB,
		Mailer:       application.Mailer,
		FileUploader: application.FileUploader,
		Helper:       application.Helper,
		Ctx:          context.Background(),
	})

	go wk.SubmittedWorker()
	go wk.ReviewWorker()

	return application.ServeHTTP()
}
