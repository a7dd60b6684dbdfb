package main

import (
	"context"
	"time"

	"github.com/diwise/context-broker/pkg/ngsild/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/go-chi/chi"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/application"
	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/application/fiware"
	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/application/lwm2m"
	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/infrastructure/router"
	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/infrastructure/scheduler"
)

const serviceName string = "apolweather"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	dotenvErr := godotenv.Load()

	ctx, logger, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)
	defer cleanup()

	if dotenvErr != nil {
		logger.Debug().Err(dotenvErr).Msg("no .env file loaded")
	}

	baseUrl := env.GetVariableOrDefault(logger, "KOW_BASEURL", application.DefaultBaseURL)
	fetchTimeout := durationFromEnv(logger, "FETCH_TIMEOUT", "30s")
	refreshInterval := durationFromEnv(logger, "REFRESH_INTERVAL", "15m")
	servicePort := env.GetVariableOrDefault(logger, "SERVICE_PORT", "8080")
	contextBrokerUrl := env.GetVariableOrDefault(logger, "CONTEXT_BROKER_URL", "")
	lwm2mUrl := env.GetVariableOrDefault(logger, "LWM2M_URL", "")

	handlers := []application.RefreshHandler{}

	if contextBrokerUrl != "" {
		contextBroker := client.NewContextBrokerClient(contextBrokerUrl)
		handlers = append(handlers, func(ctx context.Context, state *application.State) error {
			return fiware.CreateOrUpdateWeatherObserved(ctx, contextBroker, state.Points)
		})
	}

	if lwm2mUrl != "" {
		handlers = append(handlers, func(ctx context.Context, state *application.State) error {
			return lwm2m.CreateAndSendAsLWM2M(ctx, state.Points, lwm2mUrl, lwm2m.Send)
		})
	}

	keeper := application.NewKeeper(application.New(baseUrl), fetchTimeout, handlers...)

	if _, err := keeper.Refresh(ctx); err != nil {
		logger.Error().Err(err).Msg("initial fetch failed, serving empty data until the next refresh")
	}

	sched := scheduler.New(ctx, logger, refreshInterval, scheduler.RefreshFunc(func(ctx context.Context) error {
		_, err := keeper.Refresh(ctx)
		return err
	}))

	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	r := router.SetupRouter(chi.NewRouter(), logger, keeper)

	if err := r.Start(servicePort); err != nil {
		logger.Error().Err(err).Msg("router stopped")
	}
}

func durationFromEnv(logger zerolog.Logger, name, defaultValue string) time.Duration {
	value := env.GetVariableOrDefault(logger, name, defaultValue)

	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Fatal().Err(err).Str("name", name).Msg("invalid duration")
	}

	return d
}
