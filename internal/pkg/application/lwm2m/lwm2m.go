package lwm2m

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/application"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/farshidtz/senml/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var tlsSkipVerify bool

func init() {
	tlsSkipVerify = env.GetVariableOrDefault(zerolog.Logger{}, "TLS_SKIP_VERIFY", "0") == "1"
}

var tracer = otel.Tracer("apolweather/lwm2m")

const (
	TemperatureURN string = "urn:oma:lwm2m:ext:3303"
	HumidityURN    string = "urn:oma:lwm2m:ext:3304"
	PressureURN    string = "urn:oma:lwm2m:ext:3323"
)

// sensor value resource shared by the temperature, humidity and pressure objects
const sensorValue string = "5700"

// CreateAndSendAsLWM2M sends the latest reading of every device as one pack per object.
func CreateAndSendAsLWM2M(ctx context.Context, points []domain.EnrichedPoint, url string, sender SenderFunc) error {
	logger := logging.GetFromContext(ctx)

	var errs []error

	for _, p := range application.LatestPerDevice(points) {
		log := logger.With().Str("device_id", p.Metadata.DeviceID).Logger()

		timestamp, ok := application.ObservedAt(p)
		if !ok {
			err := fmt.Errorf("could not parse timestamp %q", p.Metadata.UTCTimestamp)
			errs = append(errs, err)
			log.Error().Err(err).Msg("could not parse timestamp")
			continue
		}

		for _, pack := range packsForPoint(p, timestamp) {
			err := sender(ctx, url, pack)
			if err != nil {
				log.Error().Err(err).Msg("could not send pack")
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func packsForPoint(p domain.EnrichedPoint, observed time.Time) []senml.Pack {
	deviceID := p.Metadata.DeviceID

	packs := []senml.Pack{
		objectPack(TemperatureURN, deviceID, p.SensorData.Temperature, senml.UnitCelsius, observed),
	}

	if p.SensorData.Humidity != nil {
		packs = append(packs, objectPack(HumidityURN, deviceID, *p.SensorData.Humidity, senml.UnitRelativeHumidity, observed))
	}

	if p.SensorData.Pressure != nil {
		packs = append(packs, objectPack(PressureURN, deviceID, *p.SensorData.Pressure, "hPa", observed))
	}

	return packs
}

// objectPack holds the device id record followed by a single sensor value record
func objectPack(urn, deviceID string, value float64, unit string, observed time.Time) senml.Pack {
	at := float64(observed.Unix())

	return senml.Pack{
		{BaseName: urn, BaseTime: at, Name: "0", StringValue: deviceID},
		{Name: sensorValue, Value: &value, Unit: unit, Time: at},
	}
}

type SenderFunc = func(context.Context, string, senml.Pack) error

func newHTTPClient() http.Client {
	transport := http.DefaultTransport

	if tlsSkipVerify {
		insecure := http.DefaultTransport.(*http.Transport).Clone()
		insecure.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = insecure
	}

	return http.Client{Transport: otelhttp.NewTransport(transport)}
}

// Send posts pack to url as senml+json and expects the object to be created.
func Send(ctx context.Context, url string, pack senml.Pack) error {
	var err error

	ctx, span := tracer.Start(ctx, "send-object")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var body []byte
	if body, err = json.Marshal(pack); err != nil {
		return err
	}

	var req *http.Request
	if req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body)); err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/senml+json")

	httpClient := newHTTPClient()

	var resp *http.Response
	if resp, err = httpClient.Do(req); err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		err = fmt.Errorf("%s responded with %d, expected %d", url, resp.StatusCode, http.StatusCreated)
	}

	return err
}
