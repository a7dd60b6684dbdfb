package application

import (
	"time"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/google/uuid"
)

// ListCities returns the distinct cities of points in the order they are first seen.
// Every call hands out new ids, so cities from two calls can only be compared by name.
func ListCities(points []domain.EnrichedPoint) []domain.City {
	seen := map[string]struct{}{}
	cities := []domain.City{}

	for _, p := range points {
		name := p.Metadata.Location.City
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		cities = append(cities, domain.City{
			ID:   uuid.NewString(),
			Name: name,
		})
	}

	return cities
}

func PointsForCity(points []domain.EnrichedPoint, city domain.City) []domain.EnrichedPoint {
	result := []domain.EnrichedPoint{}

	for _, p := range points {
		if p.Metadata.Location.City == city.Name {
			result = append(result, p)
		}
	}

	return result
}

func TemperaturesForCity(points []domain.EnrichedPoint, city domain.City) []float64 {
	cityPoints := PointsForCity(points, city)
	temperatures := make([]float64, 0, len(cityPoints))

	for _, p := range cityPoints {
		temperatures = append(temperatures, p.SensorData.Temperature)
	}

	return temperatures
}

// ObservedAt parses the canonical timestamp of an enriched point.
func ObservedAt(p domain.EnrichedPoint) (time.Time, bool) {
	t, err := time.Parse(domain.CanonicalTimestampLayout, p.Metadata.UTCTimestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LatestPerDevice keeps the most recent point of every device, in the order devices are first seen.
// Points with an unparseable timestamp never replace one that parses.
func LatestPerDevice(points []domain.EnrichedPoint) []domain.EnrichedPoint {
	index := map[string]int{}
	latest := []domain.EnrichedPoint{}

	for _, p := range points {
		i, ok := index[p.Metadata.DeviceID]
		if !ok {
			index[p.Metadata.DeviceID] = len(latest)
			latest = append(latest, p)
			continue
		}

		current, _ := ObservedAt(latest[i])
		candidate, _ := ObservedAt(p)

		if !candidate.Before(current) {
			latest[i] = p
		}
	}

	return latest
}
