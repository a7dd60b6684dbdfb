package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const DefaultBaseURL string = "https://keepersofweather.nl"

const (
	locationsPath   string = "/api/devices/locations"
	weatherDataPath string = "/api"
)

type Integration interface {
	GetLocations(ctx context.Context) ([]domain.Location, error)
	GetWeatherpoints(ctx context.Context) ([]domain.RawPoint, error)
}

type integrationKOW struct {
	baseUrl    string
	httpClient http.Client
}

var tracer = otel.Tracer("apolweather/app")

func New(baseUrl string) Integration {
	return &integrationKOW{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// getJSON decodes the body of a GET against path into v. A response with any status other
// than 200 leaves v untouched and is not reported as an error.
func (i *integrationKOW) getJSON(ctx context.Context, path string, v any) error {
	logger := logging.GetFromContext(ctx)
	url := i.baseUrl + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %s", err.Error())
	}
	req.Header.Add("Accept", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: request to %s did not complete in time", ErrTimeout, url)
		}
		return fmt.Errorf("%w: request to %s failed: %w", ErrNetwork, url, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn().Str("url", url).Int("status_code", resp.StatusCode).Msg("unexpected response code, treating as empty result")
		return nil
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: reading response from %s did not complete in time", ErrTimeout, url)
		}
		return fmt.Errorf("%w: failed to read response body as bytes: %w", ErrNetwork, err)
	}

	err = json.Unmarshal(respBytes, v)
	if err != nil {
		logger.Error().Err(err).Str("url", url).Msg("failed to decode response body")
		return fmt.Errorf("%w: failed to unmarshal response from %s: %w", ErrDecode, url, err)
	}

	return nil
}
