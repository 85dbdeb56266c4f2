package board

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stationboard.org/internal/logging"
	"stationboard.org/internal/models"
)

const DefaultWorkers = 4

// Options configures an Aggregator.
type Options struct {
	Stop     models.Stop
	Mode     models.RouteType
	Location *time.Location
	Workers  int
	Clock    Clock
	Logger   *slog.Logger
}

// Aggregator builds boards. It holds no per-run state and is safe for concurrent use.
type Aggregator struct {
	api         *API
	predictions PredictionSource
	opts        Options
}

// NewAggregator creates an aggregator fetching through f. When preds is nil the
// prediction lookup also goes through f.
func NewAggregator(f Fetcher, preds PredictionSource, opts Options) *Aggregator {
	api := NewAPI(f)
	if preds == nil {
		preds = api
	}
	if opts.Mode == 0 {
		opts.Mode = models.CommuterRail
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Aggregator{api: api, predictions: preds, opts: opts}
}

// Stop returns the stop boards are built for.
func (a *Aggregator) Stop() models.Stop {
	return a.opts.Stop
}

// run is the accumulator owned by a single Build call.
type run struct {
	id          string
	startedAt   time.Time
	cutoff      models.TimeOfDay
	departures  models.Departures
	predictions models.Predictions
	arrivals    *models.Arrivals
	logger      *slog.Logger
}

func (a *Aggregator) newRun() *run {
	id := uuid.NewString()
	now := a.opts.Clock.Now()
	return &run{
		id:        id,
		startedAt: now,
		cutoff:    SelectCutoff(FixedClock(now), a.opts.Location),
		logger: a.opts.Logger.With(
			slog.String("run_id", id),
			slog.String("stop_id", string(a.opts.Stop.ID))),
	}
}

// Build runs one full aggregation. Any stage failure aborts the run and no
// partial board is returned.
func (a *Aggregator) Build(ctx context.Context) (*models.Board, error) {
	r := a.newRun()
	started := time.Now()

	if err := a.build(ctx, r); err != nil {
		logging.LogError(r.logger, "aggregation_failed", err,
			slog.String("error_kind", ErrorKind(err)),
			slog.String("cutoff", r.cutoff.String()))
		return nil, err
	}

	logging.LogStage(r.logger, "board", started,
		slog.String("cutoff", r.cutoff.String()),
		slog.Int("departures", r.departures.Len()),
		slog.Int("arrivals", r.arrivals.Len()))

	return &models.Board{
		RunID:       r.id,
		Stop:        a.opts.Stop,
		Cutoff:      r.cutoff,
		Departures:  &r.departures,
		Arrivals:    r.arrivals,
		GeneratedAt: r.startedAt,
	}, nil
}

func (a *Aggregator) build(ctx context.Context, r *run) error {
	// Routes and predictions are independent of each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.loadRoutes(gctx, r)
	})
	g.Go(func() error {
		started := time.Now()
		preds, err := a.predictions.Predictions(gctx, a.opts.Stop.ID, a.opts.Mode)
		if err != nil {
			return fmt.Errorf("fetching predictions: %w", err)
		}
		r.predictions = preds
		logging.LogStage(r.logger, "predictions", started, slog.Int("trips", len(preds)))
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// The departure key set is final from here on. Arrivals only read the
	// keys and line names captured below.
	order := r.departures.Keys()
	lineNames := make(map[models.RouteID]string, len(order))
	for _, e := range r.departures.Entries() {
		lineNames[e.Route] = e.Value.LongName
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.joinDepartures(gctx, r, order)
	})
	g.Go(func() error {
		started := time.Now()
		entries, err := a.api.Arrivals(gctx, a.opts.Stop.ID, r.cutoff, func(id models.RouteID) bool {
			_, ok := lineNames[id]
			return ok
		})
		if err != nil {
			return fmt.Errorf("fetching arrivals: %w", err)
		}
		arrivals, err := joinArrivals(entries, order, lineNames, r.predictions)
		if err != nil {
			return fmt.Errorf("joining arrivals: %w", err)
		}
		r.arrivals = arrivals
		logging.LogStage(r.logger, "arrivals", started, slog.Int("routes", arrivals.Len()))
		return nil
	})
	return g.Wait()
}

// loadRoutes discovers the routes serving the stop and enriches each one.
// Records are inserted in discovery order.
func (a *Aggregator) loadRoutes(ctx context.Context, r *run) error {
	started := time.Now()
	ids, err := a.api.DiscoverRoutes(ctx, a.opts.Stop.ID, a.opts.Mode)
	if err != nil {
		return fmt.Errorf("discovering routes: %w", err)
	}
	logging.LogStage(r.logger, "discovery", started, slog.Int("routes", len(ids)))

	started = time.Now()
	metas := make([]models.RouteMetadata, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			meta, err := a.api.EnrichRoute(gctx, id)
			if err != nil {
				return fmt.Errorf("enriching route %s: %w", id, err)
			}
			metas[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, id := range ids {
		r.departures.Set(id, &models.DepartureRecord{RouteMetadata: metas[i]})
	}
	logging.LogStage(r.logger, "enrichment", started, slog.Int("routes", r.departures.Len()))
	return nil
}

// joinDepartures fetches the next departure of every route and applies the
// results to the records from a single goroutine.
func (a *Aggregator) joinDepartures(ctx context.Context, r *run, order []models.RouteID) error {
	started := time.Now()
	next := make([]*ScheduledStop, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, id := range order {
		i, id := i, id
		g.Go(func() error {
			s, err := a.api.NextDeparture(gctx, id, a.opts.Stop.ID, r.cutoff)
			if err != nil {
				return fmt.Errorf("fetching departure for route %s: %w", id, err)
			}
			next[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, id := range order {
		rec, _ := r.departures.Get(id)
		if err := applyDeparture(rec, next[i], r.predictions); err != nil {
			return fmt.Errorf("route %s: %w", id, err)
		}
	}
	logging.LogStage(r.logger, "departures", started, slog.Int("routes", len(order)))
	return nil
}
