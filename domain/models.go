package domain

import (
	"encoding/json"
	"errors"
)

const (
	// RawTimestampLayout is the layout of utcTimeStamp as delivered by the api.
	RawTimestampLayout string = "2006-01-02T15:04:05"
	// CanonicalTimestampLayout is the layout of utcTimeStamp after enrichment.
	CanonicalTimestampLayout string = "15:04:05 02-01-2006"
)

type Location struct {
	City         string `json:"City"`
	DeviceID     string `json:"deviceId"`
	DeviceNumber int    `json:"deviceIndex"`
}

// FallbackLocation is used for points whose device is missing from the location list.
var FallbackLocation = Location{
	City:         "Earth",
	DeviceID:     "lht-mars",
	DeviceNumber: 0,
}

type RawPoint struct {
	Metadata           Metadata           `json:"metadata"`
	Positional         Positional         `json:"positional"`
	SensorData         SensorData         `json:"sensorData"`
	TransmissionalData TransmissionalData `json:"transmissionalData"`
}

// UnmarshalJSON rejects points that carry no sensor data at all.
func (p *RawPoint) UnmarshalJSON(data []byte) error {
	type rawPoint RawPoint

	aux := struct {
		SensorData *SensorData `json:"sensorData"`
		*rawPoint
	}{
		rawPoint: (*rawPoint)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.SensorData == nil {
		return ErrMissingTemperature
	}

	p.SensorData = *aux.SensorData

	return nil
}

type EnrichedPoint struct {
	ID                 string               `json:"id"`
	Metadata           MetadataWithLocation `json:"metadata"`
	Positional         Positional           `json:"positional"`
	SensorData         SensorData           `json:"sensorData"`
	TransmissionalData TransmissionalData   `json:"transmissionalData"`
}

type Metadata struct {
	UTCTimestamp  string `json:"utcTimeStamp"`
	DeviceID      string `json:"deviceID"`
	ApplicationID string `json:"applicationID"`
	GatewayID     string `json:"gatewayID"`
}

type MetadataWithLocation struct {
	UTCTimestamp  string   `json:"utcTimeStamp"`
	DeviceID      string   `json:"deviceID"`
	ApplicationID string   `json:"applicationID"`
	GatewayID     string   `json:"gatewayID"`
	Location      Location `json:"locationData"`
}

type Positional struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *int     `json:"altitude,omitempty"`
}

type SensorData struct {
	Temperature    float64  `json:"temperature"`
	LightLogscale  *int     `json:"lightLogscale,omitempty"`
	LightLux       *int     `json:"lightLux,omitempty"`
	Humidity       *float64 `json:"humidity,omitempty"`
	Pressure       *float64 `json:"pressure,omitempty"`
	BatteryStatus  *int     `json:"batteryStatus,omitempty"`
	BatteryVoltage *float64 `json:"batteryVoltage,omitempty"`
	WorkMode       *string  `json:"workMode,omitempty"`
}

var ErrMissingTemperature = errors.New("sensorData.temperature is required")

// UnmarshalJSON rejects readings without a temperature, every other reading is optional.
func (s *SensorData) UnmarshalJSON(data []byte) error {
	type sensorData SensorData

	aux := struct {
		Temperature *float64 `json:"temperature"`
		*sensorData
	}{
		sensorData: (*sensorData)(s),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Temperature == nil {
		return ErrMissingTemperature
	}

	s.Temperature = *aux.Temperature

	return nil
}

type TransmissionalData struct {
	RSSI            *int     `json:"rssi,omitempty"`
	SNR             *float64 `json:"snr,omitempty"`
	SpreadingFactor *int     `json:"spreadingFactor,omitempty"`
	ConsumedAirtime *float64 `json:"consumedAirtime,omitempty"`
	Bandwidth       *int     `json:"bandwidth,omitempty"`
	Frequency       *int     `json:"frequency,omitempty"`
}

type City struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
