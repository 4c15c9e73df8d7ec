package sources

import (
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

// NewClient builds a resty client with request latency logging for one
// named upstream source.
func NewClient(sourceName string, timeout time.Duration, log zerolog.Logger) *resty.Client {
	client := resty.New().SetTimeout(timeout)
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log.Debug().
			Str("client", sourceName).
			Int("status", r.StatusCode()).
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Dur("latency", r.Duration()).
			Msg("HTTP client request")
		return nil
	})
	return client
}
