package fiware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/application"
	"github.com/diwise/context-broker/pkg/ngsild/client"
	ngsierrors "github.com/diwise/context-broker/pkg/ngsild/errors"
	"github.com/diwise/context-broker/pkg/ngsild/types"
	"github.com/diwise/context-broker/pkg/ngsild/types/entities"
	. "github.com/diwise/context-broker/pkg/ngsild/types/entities/decorators"
	"github.com/diwise/context-broker/pkg/ngsild/types/properties"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

const (
	WeatherObservedIDPrefix string = "urn:ngsi-ld:WeatherObserved:"
	WeatherObservedTypeName string = "WeatherObserved"
)

var tracer = otel.Tracer("apolweather/fiware")

// CreateOrUpdateWeatherObserved upserts one WeatherObserved entity per device, using the
// most recent point of that device.
func CreateOrUpdateWeatherObserved(ctx context.Context, cbClient client.ContextBrokerClient, points []domain.EnrichedPoint) error {
	var err error

	ctx, span := tracer.Start(ctx, "create-weather-observed")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

	var errs []error

	for _, p := range application.LatestPerDevice(points) {
		observed, ok := application.ObservedAt(p)
		if !ok {
			logger.Warn().Str("device_id", p.Metadata.DeviceID).Str("timestamp", p.Metadata.UTCTimestamp).Msg("skipping point without a usable timestamp")
			continue
		}

		perr := createOrUpdate(ctx, cbClient, p, observed)
		if perr != nil {
			errs = append(errs, perr)
		}
	}

	err = errors.Join(errs...)

	return err
}

func createOrUpdate(ctx context.Context, cbClient client.ContextBrokerClient, p domain.EnrichedPoint, observed time.Time) error {
	logger := logging.GetFromContext(ctx).With().Str("device_id", p.Metadata.DeviceID).Logger()

	headers := map[string][]string{"Content-Type": {"application/ld+json"}}

	decorators := weatherObservedDecorators(p, observed.UTC().Format(time.RFC3339))

	fragment, err := entities.NewFragment(decorators...)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create entity fragments")
		return err
	}

	entityID := WeatherObservedIDPrefix + p.Metadata.DeviceID

	_, err = cbClient.MergeEntity(ctx, entityID, fragment, headers)
	if err == nil {
		logger.Info().Msgf("updated entity %s", entityID)
		return nil
	}

	if !errors.Is(err, ngsierrors.ErrNotFound) {
		logger.Error().Err(err).Msg("failed to merge entity")
	}

	var entity types.Entity
	entity, err = entities.New(entityID, WeatherObservedTypeName, decorators...)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create new entity")
		return err
	}

	_, err = cbClient.CreateEntity(ctx, entity, headers)
	if err != nil {
		logger.Error().Err(err).Msg("failed to post entity to context broker")
		return fmt.Errorf("failed to create entity %s: %w", entityID, err)
	}

	logger.Info().Msgf("created entity %s", entityID)

	return nil
}

func weatherObservedDecorators(p domain.EnrichedPoint, timestamp string) []entities.EntityDecoratorFunc {
	decorators := []entities.EntityDecoratorFunc{
		entities.DefaultContext(),
		Text("areaServed", p.Metadata.Location.City),
		DateTime(properties.DateObserved, timestamp),
		Number("temperature", p.SensorData.Temperature, properties.UnitCode(unitCodes["Celsius"]), properties.ObservedAt(timestamp)),
	}

	if p.SensorData.Humidity != nil {
		decorators = append(decorators, Number("relativeHumidity", *p.SensorData.Humidity, properties.UnitCode(unitCodes["Percent"]), properties.ObservedAt(timestamp)))
	}

	if p.SensorData.Pressure != nil {
		decorators = append(decorators, Number("atmosphericPressure", *p.SensorData.Pressure, properties.UnitCode(unitCodes["Hectopascals"]), properties.ObservedAt(timestamp)))
	}

	if p.Positional.Latitude != nil && p.Positional.Longitude != nil {
		decorators = append(decorators, Location(*p.Positional.Latitude, *p.Positional.Longitude))
	}

	return decorators
}

var unitCodes map[string]string = map[string]string{
	"Celsius":      "CEL",
	"Percent":      "P1",
	"Hectopascals": "A97",
}
