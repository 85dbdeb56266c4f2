package app

import (
	"context"
	"log/slog"
	"time"

	"stationboard.org/internal/appconf"
	"stationboard.org/internal/board"
	"stationboard.org/internal/mbta"
	"stationboard.org/internal/models"
	"stationboard.org/internal/realtime"
)

// BoardBuilder produces a fresh board on every call.
type BoardBuilder interface {
	Build(ctx context.Context) (*models.Board, error)
	Stop() models.Stop
}

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config appconf.Config
	Logger *slog.Logger
	Board  BoardBuilder
	Clock  board.Clock
}

// New wires the MBTA client, the configured prediction source and the aggregator.
func New(cfg appconf.Config, logger *slog.Logger) *Application {
	client := mbta.NewClient(mbta.Config{
		BaseURL:   cfg.Source.BaseURL,
		APIKey:    cfg.Source.APIKey,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.Source.RequestTimeout,
		Logger:    logger.With(slog.String("component", "mbta_client")),
	})

	var preds board.PredictionSource
	if cfg.Source.Predictions == appconf.PredictionsGTFSRT {
		headers := map[string]string{"User-Agent": cfg.Source.UserAgent}
		preds = realtime.NewSource(realtime.Config{
			TripUpdatesURL: cfg.Source.TripUpdatesURL,
			Headers:        headers,
			Timeout:        cfg.Source.RequestTimeout,
			Logger:         logger,
		})
	}

	clock := board.SystemClock{}
	aggregator := board.NewAggregator(client, preds, board.Options{
		Stop:     models.Stop{Name: cfg.Stop.Name, ID: models.StopID(cfg.Stop.ID)},
		Mode:     models.CommuterRail,
		Location: cfg.Location(),
		Workers:  cfg.Source.Workers,
		Clock:    clock,
		Logger:   logger.With(slog.String("component", "board")),
	})

	return &Application{
		Config: cfg,
		Logger: logger,
		Board:  aggregator,
		Clock:  clock,
	}
}

// Now returns the current time in the agency timezone.
func (app *Application) Now() time.Time {
	return app.clock().Now().In(app.Config.Location())
}

func (app *Application) clock() board.Clock {
	if app.Clock == nil {
		return board.SystemClock{}
	}
	return app.Clock
}
