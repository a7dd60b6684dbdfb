package fiware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/diwise/context-broker/pkg/ngsild/client"
	"github.com/diwise/context-broker/pkg/ngsild/types/entities"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var method = expects.RequestMethod

func TestThatWeatherObservedEntityContainsReadings(t *testing.T) {
	is := is.New(t)

	p := point("a", "py-saxion", "14:30:00 18-12-2021")
	humidity := 81.5
	lat, lon := 52.2195, 6.8872
	p.SensorData.Humidity = &humidity
	p.Positional.Latitude = &lat
	p.Positional.Longitude = &lon

	entity, err := entities.New(WeatherObservedIDPrefix+"py-saxion", WeatherObservedTypeName, weatherObservedDecorators(p, "2021-12-18T14:30:00Z")...)
	is.NoErr(err)

	b, err := json.Marshal(entity)
	is.NoErr(err)

	body := string(b)
	is.True(strings.Contains(body, "urn:ngsi-ld:WeatherObserved:py-saxion"))
	is.True(strings.Contains(body, "temperature"))
	is.True(strings.Contains(body, "relativeHumidity"))
	is.True(strings.Contains(body, "Enschede"))
	is.True(!strings.Contains(body, "atmosphericPressure")) // no pressure reading
}

func TestThatExistingEntitiesAreMerged(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPatch),
		),
		Returns(
			response.Code(http.StatusNoContent),
			response.Body([]byte("")),
		),
	)

	cbClient := client.NewContextBrokerClient(s.URL())

	points := []domain.EnrichedPoint{
		point("a", "py-saxion", "14:30:00 18-12-2021"),
		point("b", "py-saxion", "not a timestamp"),
	}

	err := CreateOrUpdateWeatherObserved(context.Background(), cbClient, points)
	is.NoErr(err)
}

func point(id, deviceID, timestamp string) domain.EnrichedPoint {
	return domain.EnrichedPoint{
		ID: id,
		Metadata: domain.MetadataWithLocation{
			UTCTimestamp: timestamp,
			DeviceID:     deviceID,
			Location:     domain.Location{City: "Enschede", DeviceID: deviceID, DeviceNumber: 1},
		},
		SensorData: domain.SensorData{Temperature: 7.5},
	}
}
