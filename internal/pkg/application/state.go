package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// State is the outcome of one fetch cycle. It is not modified after Initialise returns it.
type State struct {
	Points    []domain.EnrichedPoint
	FetchedAt time.Time
}

func emptyState() *State {
	return &State{Points: []domain.EnrichedPoint{}}
}

func (s *State) Cities() []domain.City {
	return ListCities(s.Points)
}

func (s *State) WeatherpointsForCity(city domain.City) []domain.EnrichedPoint {
	return PointsForCity(s.Points, city)
}

func (s *State) TemperaturesForCity(city domain.City) []float64 {
	return TemperaturesForCity(s.Points, city)
}

// Initialise fetches locations and weather points concurrently, waits for both and merges them.
// The returned state is never nil. On error it is empty and the error wraps ErrNetwork,
// ErrDecode or ErrTimeout.
func Initialise(ctx context.Context, integration Integration, timeout time.Duration) (*State, error) {
	var err error

	ctx, span := tracer.Start(ctx, "initialise")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	logger := logging.GetFromContext(ctx)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		points    []domain.RawPoint
		locations []domain.Location
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var e error
		points, e = integration.GetWeatherpoints(gctx)
		return e
	})

	g.Go(func() error {
		var e error
		locations, e = integration.GetLocations(gctx)
		return e
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: fetch cycle did not complete within %s", ErrTimeout, timeout)
		}
		logger.Error().Err(err).Msg("fetch cycle failed")
		return emptyState(), err
	}

	observed := ObservationTimes(points)
	if len(observed) > 0 {
		logger.Debug().
			Time("newest", observed[0]).
			Time("oldest", observed[len(observed)-1]).
			Int("parsed", len(observed)).
			Msg("sorted observation times")
	}

	state := &State{
		Points:    Merge(ctx, points, locations),
		FetchedAt: time.Now().UTC(),
	}

	logger.Info().Int("weatherpoints", len(points)).Int("locations", len(locations)).Msg("fetch cycle completed")

	return state, nil
}

// RefreshHandler is called with every state a successful fetch cycle produces.
type RefreshHandler func(ctx context.Context, state *State) error

// Keeper owns the current state and runs at most one fetch cycle at a time.
type Keeper struct {
	integration Integration
	timeout     time.Duration
	handlers    []RefreshHandler

	group singleflight.Group

	mu    sync.RWMutex
	state *State
}

func NewKeeper(integration Integration, timeout time.Duration, handlers ...RefreshHandler) *Keeper {
	return &Keeper{
		integration: integration,
		timeout:     timeout,
		handlers:    handlers,
		state:       emptyState(),
	}
}

func (k *Keeper) State() *State {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return k.state
}

// Refresh runs a fetch cycle, or joins the one already in flight. When the cycle fails the
// previous state is kept and returned together with the error.
func (k *Keeper) Refresh(ctx context.Context) (*State, error) {
	state, _, err := k.refresh(ctx)
	return state, err
}

func (k *Keeper) refresh(ctx context.Context) (*State, bool, error) {
	res := <-k.join(ctx)

	if res.Shared {
		logger := logging.GetFromContext(ctx)
		logger.Debug().Msg("fetch cycle was shared with another caller")
	}

	return res.Val.(*State), res.Shared, res.Err
}

// join registers the caller with the cycle in flight, starting one when there is none.
func (k *Keeper) join(ctx context.Context) <-chan singleflight.Result {
	return k.group.DoChan("refresh", func() (any, error) {
		state, err := Initialise(ctx, k.integration, k.timeout)
		if err != nil {
			return k.State(), err
		}

		k.mu.Lock()
		k.state = state
		k.mu.Unlock()

		logger := logging.GetFromContext(ctx)

		for _, handle := range k.handlers {
			if herr := handle(ctx, state); herr != nil {
				logger.Error().Err(herr).Msg("refresh handler failed")
			}
		}

		return state, nil
	})
}
