package application

import (
	"context"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

func (i *integrationKOW) GetLocations(ctx context.Context) ([]domain.Location, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-locations")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	logger := logging.GetFromContext(ctx)
	logger.Debug().Msg("asking api for locations")

	locations := []domain.Location{}

	err = i.getJSON(ctx, locationsPath, &locations)
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("count", len(locations)).Msg("parsed locations")

	return locations, nil
}
