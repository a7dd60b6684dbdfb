package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var method = expects.RequestMethod

func TestThatGetLocationsReturnsAndDecodesCorrectly(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
		),
		Returns(
			response.Code(http.StatusOK),
			response.Body([]byte(locationsResponse)),
		),
	)

	mockApp := newMockApp(t, s.URL())

	locations, err := mockApp.GetLocations(context.Background())
	is.NoErr(err)
	is.Equal(len(locations), 3)
	is.Equal(locations[0], domain.Location{City: "Enschede", DeviceID: "py-saxion", DeviceNumber: 1})
	is.Equal(locations[2], domain.Location{City: "Deventer", DeviceID: "lht-wierden", DeviceNumber: 3})
}

// A non 200 response is not treated as an error, the list is just empty.
func TestThatGetLocationsReturnsEmptyListIfResponseCodeIsNotOK(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
		),
		Returns(
			response.Code(http.StatusNotFound),
			response.Body([]byte("")),
		),
	)

	mockApp := newMockApp(t, s.URL())

	locations, err := mockApp.GetLocations(context.Background())
	is.NoErr(err)
	is.True(locations != nil)
	is.Equal(len(locations), 0)
}

func TestThatGetWeatherpointsReturnsEmptyListIfResponseCodeIsNotOK(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
		),
		Returns(
			response.Code(http.StatusInternalServerError),
			response.Body([]byte("oops")),
		),
	)

	mockApp := newMockApp(t, s.URL())

	points, err := mockApp.GetWeatherpoints(context.Background())
	is.NoErr(err)
	is.Equal(len(points), 0)
}

func TestThatGetWeatherpointsDecodesOptionalReadings(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
		),
		Returns(
			response.Code(http.StatusOK),
			response.Body([]byte(weatherpointsResponse)),
		),
	)

	mockApp := newMockApp(t, s.URL())

	points, err := mockApp.GetWeatherpoints(context.Background())
	is.NoErr(err)
	is.Equal(len(points), 3)

	first := points[0]
	is.Equal(first.Metadata.UTCTimestamp, "2021-12-18T14:30:00")
	is.Equal(first.Metadata.DeviceID, "py-saxion")
	is.Equal(first.SensorData.Temperature, 7.5)
	is.Equal(*first.SensorData.Humidity, 81.5)
	is.Equal(*first.TransmissionalData.RSSI, -97)
	is.Equal(*first.Positional.Altitude, 20)

	last := points[2]
	is.Equal(last.SensorData.Temperature, -1.25)
	is.True(last.SensorData.Humidity == nil) // missing humidity is not an error
	is.True(last.Positional.Latitude == nil)
	is.True(last.TransmissionalData.SNR == nil)
}

func TestThatGetWeatherpointsFailsWithDecodeErrorOnMalformedJSON(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
		),
		Returns(
			response.Code(http.StatusOK),
			response.Body([]byte(`[{"metadata": {"deviceID": "py-saxion"}`)),
		),
	)

	mockApp := newMockApp(t, s.URL())

	points, err := mockApp.GetWeatherpoints(context.Background())
	is.True(errors.Is(err, ErrDecode))
	is.True(points == nil)
}

func TestThatGetWeatherpointsFailsWithDecodeErrorWhenTemperatureIsMissing(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
		),
		Returns(
			response.Code(http.StatusOK),
			response.Body([]byte(`[{"metadata": {"deviceID": "py-saxion"}, "sensorData": {"humidity": 80}}]`)),
		),
	)

	mockApp := newMockApp(t, s.URL())

	_, err := mockApp.GetWeatherpoints(context.Background())
	is.True(errors.Is(err, ErrDecode))
	is.True(errors.Is(err, domain.ErrMissingTemperature))
}

func TestThatGetLocationsFailsWithDecodeErrorOnSchemaMismatch(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
		),
		Returns(
			response.Code(http.StatusOK),
			response.Body([]byte(`{"City": "Enschede"}`)),
		),
	)

	mockApp := newMockApp(t, s.URL())

	_, err := mockApp.GetLocations(context.Background())
	is.True(errors.Is(err, ErrDecode))
}

func TestThatGetLocationsFailsWithNetworkErrorWhenServerIsUnreachable(t *testing.T) {
	is := is.New(t)

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	mockApp := newMockApp(t, url)

	locations, err := mockApp.GetLocations(context.Background())
	is.True(errors.Is(err, ErrNetwork))
	is.True(locations == nil)
}

func newMockApp(t *testing.T, serverURL string) *integrationKOW {
	app := New(serverURL)
	mockApp := app.(*integrationKOW)

	return mockApp
}

const locationsResponse string = `[
	{
		"City": "Enschede",
		"deviceId": "py-saxion",
		"deviceIndex": 1
	},
	{
		"City": "Enschede",
		"deviceId": "lht-gronau",
		"deviceIndex": 2
	},
	{
		"City": "Deventer",
		"deviceId": "lht-wierden",
		"deviceIndex": 3
	}
]`

const weatherpointsResponse string = `[
	{
		"metadata": {
			"utcTimeStamp": "2021-12-18T14:30:00",
			"deviceID": "py-saxion",
			"applicationID": "kow-app",
			"gatewayID": "saxion-gw"
		},
		"positional": {
			"latitude": 52.2195,
			"longitude": 6.8872,
			"altitude": 20
		},
		"sensorData": {
			"temperature": 7.5,
			"humidity": 81.5,
			"pressure": 1012.3,
			"lightLux": 120
		},
		"transmissionalData": {
			"rssi": -97,
			"snr": 7.25,
			"spreadingFactor": 7,
			"consumedAirtime": 0.056,
			"bandwidth": 125000,
			"frequency": 868100000
		}
	},
	{
		"metadata": {
			"utcTimeStamp": "2021-12-18T15:00:00",
			"deviceID": "lht-wierden",
			"applicationID": "kow-app",
			"gatewayID": "wierden-gw"
		},
		"positional": {},
		"sensorData": {
			"temperature": 6.0,
			"lightLogscale": 3,
			"batteryStatus": 3,
			"batteryVoltage": 3.06,
			"workMode": "0"
		},
		"transmissionalData": {
			"rssi": -112,
			"snr": -4.5,
			"spreadingFactor": 9
		}
	},
	{
		"metadata": {
			"utcTimeStamp": "2021-12-18T13:45:00",
			"deviceID": "lht-unknown",
			"applicationID": "kow-app",
			"gatewayID": "saxion-gw"
		},
		"positional": {},
		"sensorData": {
			"temperature": -1.25
		},
		"transmissionalData": {}
	}
]`
