package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/KeepersOfWeather/apolWeatherApp/domain"
	"github.com/KeepersOfWeather/apolWeatherApp/internal/pkg/application"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
)

type Router interface {
	Start(port string) error
}

// StateProvider hands out the most recent result of a fetch cycle.
type StateProvider interface {
	State() *application.State
}

type routerStruct struct {
	router chi.Router
	log    zerolog.Logger
	states StateProvider
}

func SetupRouter(chiRouter chi.Router, log zerolog.Logger, states StateProvider) *routerStruct {
	r := &routerStruct{
		router: chiRouter,
		log:    log,
		states: states,
	}

	chiRouter.Use(middleware.Logger)
	chiRouter.Get("/health", r.health)

	chiRouter.Route("/api", func(api chi.Router) {
		api.Get("/cities", r.cities)
		api.Get("/cities/{city}/weatherpoints", r.weatherpointsForCity)
		api.Get("/cities/{city}/temperatures", r.temperaturesForCity)
		api.Get("/weatherpoints", r.weatherpoints)
	})

	return r
}

func (r *routerStruct) Start(port string) error {
	r.log.Info().Str("port", port).Msg("starting to listen for connections")
	return http.ListenAndServe(fmt.Sprintf(":%s", port), r.router)
}

func (router *routerStruct) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (router *routerStruct) cities(w http.ResponseWriter, r *http.Request) {
	router.writeJSON(w, router.states.State().Cities())
}

func (router *routerStruct) weatherpoints(w http.ResponseWriter, r *http.Request) {
	router.writeJSON(w, router.states.State().Points)
}

func (router *routerStruct) weatherpointsForCity(w http.ResponseWriter, r *http.Request) {
	router.writeJSON(w, router.states.State().WeatherpointsForCity(cityFromRequest(r)))
}

func (router *routerStruct) temperaturesForCity(w http.ResponseWriter, r *http.Request) {
	router.writeJSON(w, router.states.State().TemperaturesForCity(cityFromRequest(r)))
}

func cityFromRequest(r *http.Request) domain.City {
	name := chi.URLParam(r, "city")

	// chi matches on RawPath when it is set, leaving the parameter escaped
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	return domain.City{Name: name}
}

func (router *routerStruct) writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		router.log.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
