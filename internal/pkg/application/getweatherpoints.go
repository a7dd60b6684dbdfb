package application

import (
	"context"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

// GetWeatherpoints returns the weather points the api currently holds, roughly the last 24 hours.
func (i *integrationKOW) GetWeatherpoints(ctx context.Context) ([]domain.RawPoint, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-weatherpoints")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	logger := logging.GetFromContext(ctx)
	logger.Debug().Msg("asking api for weather points")

	points := []domain.RawPoint{}

	err = i.getJSON(ctx, weatherDataPath, &points)
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("count", len(points)).Msg("parsed weather points")

	return points, nil
}
