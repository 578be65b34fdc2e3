package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/homefit-engine/internal/adapter/gemini"
	"github.com/couchcryptid/homefit-engine/internal/adapter/google"
	"github.com/couchcryptid/homefit-engine/internal/adapter/howloud"
	kafkaadapter "github.com/couchcryptid/homefit-engine/internal/adapter/kafka"
	"github.com/couchcryptid/homefit-engine/internal/adapter/lightpollution"
	"github.com/couchcryptid/homefit-engine/internal/adapter/mapbox"
	"github.com/couchcryptid/homefit-engine/internal/adapter/openweather"
	"github.com/couchcryptid/homefit-engine/internal/config"
	"github.com/couchcryptid/homefit-engine/internal/domain"
	"github.com/couchcryptid/homefit-engine/internal/observability"
	"github.com/couchcryptid/homefit-engine/internal/pipeline"
)

// browserSettle is how long a rendered map page is given to populate its
// readouts before the DOM is read.
const browserSettle = 2 * time.Second

// buildEngine wires every provider whose credentials are present. Missing
// credentials leave the matching signal reported as not configured. The
// returned close func releases the result writer, if any.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Engine, func(), error) {
	var (
		primaryGeo, secondaryGeo domain.GeocodingProvider
		places                   domain.PlaceSearcher
		matrix                   domain.DistanceMatrix
		routes                   domain.RouteProvider
		providers                pipeline.Providers
	)

	if cfg.MapboxToken != "" {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.ProviderTimeout, logger)
		primaryGeo, matrix, routes = client, client, client
		logger.Info("mapbox enabled", "timeout", cfg.ProviderTimeout)
	} else {
		logger.Info("mapbox disabled")
	}

	if cfg.GoogleMapsAPIKey != "" {
		client := google.NewClient(cfg.GoogleMapsAPIKey, cfg.ProviderTimeout, logger)
		secondaryGeo, places = client, client
		logger.Info("google maps enabled")
	} else {
		logger.Info("google maps disabled")
	}

	if primaryGeo != nil || secondaryGeo != nil {
		providers.Geocoder = domain.NewLayeredGeocoder(primaryGeo, secondaryGeo, cfg.ProviderTimeout, logger)
	}
	if places != nil && matrix != nil {
		providers.Resolver = domain.NewProximityResolver(places, matrix, routes, cfg.PlacesCandidates, cfg.ProviderTimeout, logger)
	}

	if cfg.HowLoudAPIKey != "" {
		providers.Sound = howloud.NewClient(cfg.HowLoudAPIKey, cfg.ProviderTimeout)
	}
	if cfg.OpenWeatherKey != "" {
		providers.Air = openweather.NewClient(cfg.OpenWeatherKey, cfg.ProviderTimeout)
	}

	var api domain.NightSkyProvider
	if cfg.LightPollutionAPIKey != "" {
		api = lightpollution.NewAPIClient(cfg.LightPollutionAPIKey, cfg.LightPollutionPageURL, cfg.ProviderTimeout)
	}
	var fetcher lightpollution.PageFetcher = lightpollution.NewHTTPFetcher(cfg.ProviderTimeout)
	if cfg.NightSkyBrowser {
		fetcher = lightpollution.NewBrowserFetcher(browserSettle)
	}
	scraper := lightpollution.NewScraper(fetcher, cfg.LightPollutionPageURL)
	providers.NightSky = domain.NewNightSkyFallback(api, scraper, cfg.ProviderTimeout, logger)

	var generator domain.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		generator = gen
		logger.Info("gemini recap enabled", "model", gen.Model())
	}
	providers.Recap = domain.NewRecapWriter(generator, domain.GenerationOptions{
		MaxTokens:   cfg.RecapMaxTokens,
		Temperature: cfg.RecapTemperature,
	}, cfg.ProviderTimeout, logger)

	opts := []pipeline.Option{
		pipeline.WithRequestTimeout(cfg.RequestTimeout),
		pipeline.WithProviderTimeout(cfg.ProviderTimeout),
	}
	closeFn := func() {}
	if cfg.PublishResults() {
		writer := kafkaadapter.NewResultWriter(cfg, logger)
		opts = append(opts, pipeline.WithResultSink(writer))
		closeFn = func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		logger.Info("publishing results", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultTopic)
	}

	return pipeline.New(providers, logger, metrics, opts...), closeFn, nil
}
