package application

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"
)

// FormatTimestamp rewrites yyyy-MM-ddThh:mm:ss into "hh:mm:ss dd-MM-yyyy". Strings that do not
// have a date and a time part are returned unchanged.
func FormatTimestamp(timestamp string) string {
	date, clock, found := strings.Cut(timestamp, "T")
	if !found || date == "" || clock == "" {
		return timestamp
	}

	parts := strings.Split(date, "-")
	if len(parts) < 3 {
		return timestamp
	}

	return clock + " " + parts[2] + "-" + parts[1] + "-" + parts[0]
}

// ObservationTimes parses the raw timestamps of points and returns them newest first.
// Timestamps that cannot be parsed are left out.
func ObservationTimes(points []domain.RawPoint) []time.Time {
	observed := make([]time.Time, 0, len(points))

	for _, p := range points {
		t, err := time.Parse(domain.RawTimestampLayout, p.Metadata.UTCTimestamp)
		if err != nil {
			continue
		}
		observed = append(observed, t)
	}

	sort.Slice(observed, func(i, j int) bool {
		return observed[i].After(observed[j])
	})

	return observed
}

func locationForDevice(deviceID string, locations []domain.Location) (domain.Location, bool) {
	location := domain.FallbackLocation
	found := false

	// no early exit, a later entry for the same device replaces an earlier one
	for _, l := range locations {
		if l.DeviceID == deviceID {
			location = l
			found = true
		}
	}

	return location, found
}

// Merge joins every point with the location of its device and gives it a fresh id.
// The order of points is kept.
func Merge(ctx context.Context, points []domain.RawPoint, locations []domain.Location) []domain.EnrichedPoint {
	logger := logging.GetFromContext(ctx)

	enriched := make([]domain.EnrichedPoint, 0, len(points))

	for _, point := range points {
		timestamp := FormatTimestamp(point.Metadata.UTCTimestamp)
		if timestamp == point.Metadata.UTCTimestamp {
			logger.Warn().Str("device_id", point.Metadata.DeviceID).Str("timestamp", timestamp).Msg("timestamp not in expected format, keeping it as is")
		}

		location, found := locationForDevice(point.Metadata.DeviceID, locations)
		if !found {
			logger.Warn().Str("device_id", point.Metadata.DeviceID).Msgf("no location found for device, using %s", location.City)
		}

		enriched = append(enriched, domain.EnrichedPoint{
			ID: uuid.NewString(),
			Metadata: domain.MetadataWithLocation{
				UTCTimestamp:  timestamp,
				DeviceID:      point.Metadata.DeviceID,
				ApplicationID: point.Metadata.ApplicationID,
				GatewayID:     point.Metadata.GatewayID,
				Location:      location,
			},
			Positional:         point.Positional,
			SensorData:         point.SensorData,
			TransmissionalData: point.TransmissionalData,
		})
	}

	return enriched
}
