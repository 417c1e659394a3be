// Package cacheclient implements the one-time cache-server registration
// handshake that the original crawler performed in
// utils.server_registration.get_cache_server before starting launch.py's
// crawl: a call to a registrar that assigns this crawler identity a cache
// shard, potentially overriding the configured HOST/PORT. Registration
// failure is never fatal; the configured endpoint is used as a fallback.
package cacheclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Endpoint is a resolved cache-server address.
type Endpoint struct {
	Host string
	Port int
}

type registrationResponse struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Register attempts to learn the assigned cache shard for userAgent from
// the registrar at registrarURL. On any failure it logs a warning and
// returns fallback unchanged.
func Register(ctx context.Context, registrarURL, userAgent string, fallback Endpoint, log zerolog.Logger) Endpoint {
	if registrarURL == "" {
		return fallback
	}
	log = log.With().Str("component", "cacheclient").Logger()

	u, err := url.Parse(registrarURL)
	if err != nil {
		log.Warn().Err(err).Msg("malformed registrar URL, using configured cache server")
		return fallback
	}
	q := u.Query()
	q.Set("u", userAgent)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("could not build registration request, using configured cache server")
		return fallback
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("cache server registration unreachable, using configured cache server")
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("cache server registration rejected, using configured cache server")
		return fallback
	}

	var body registrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn().Err(err).Msg("malformed registration response, using configured cache server")
		return fallback
	}
	if body.Host == "" || body.Port == 0 {
		log.Warn().Msg("registration response missing host/port, using configured cache server")
		return fallback
	}

	log.Info().Str("host", body.Host).Int("port", body.Port).Msg("registered with cache server")
	return Endpoint{Host: body.Host, Port: body.Port}
}

// String renders an Endpoint for logging.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}
