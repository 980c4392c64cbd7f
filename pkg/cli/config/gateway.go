package config

import (
	"log/slog"
	"time"

	"github.com/hairlab/stylist/pkg/service/gateway"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/urfave/cli/v3"
)

// Gateway holds retry settings of the AI gateway
type Gateway struct {
	maxAttempts     int64
	attemptTimeout  time.Duration
	initialInterval time.Duration
	maxInterval     time.Duration
}

func (x *Gateway) Flags() []cli.Flag {
	category := "Gateway"
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "gateway-max-attempts",
			Usage:       "Total attempts per consultation including the first one",
			Category:    category,
			Value:       gateway.DefaultMaxAttempts,
			Sources:     cli.EnvVars("STYLIST_GATEWAY_MAX_ATTEMPTS"),
			Destination: &x.maxAttempts,
		},
		&cli.DurationFlag{
			Name:        "gateway-attempt-timeout",
			Usage:       "Timeout of a single LLM call",
			Category:    category,
			Value:       gateway.DefaultAttemptTimeout,
			Sources:     cli.EnvVars("STYLIST_GATEWAY_ATTEMPT_TIMEOUT"),
			Destination: &x.attemptTimeout,
		},
		&cli.DurationFlag{
			Name:        "gateway-backoff-initial",
			Usage:       "Initial retry interval",
			Category:    category,
			Value:       gateway.DefaultInitialInterval,
			Sources:     cli.EnvVars("STYLIST_GATEWAY_BACKOFF_INITIAL"),
			Destination: &x.initialInterval,
		},
		&cli.DurationFlag{
			Name:        "gateway-backoff-max",
			Usage:       "Maximum retry interval",
			Category:    category,
			Value:       gateway.DefaultMaxInterval,
			Sources:     cli.EnvVars("STYLIST_GATEWAY_BACKOFF_MAX"),
			Destination: &x.maxInterval,
		},
	}
}

func (x Gateway) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("max_attempts", x.maxAttempts),
		slog.Duration("attempt_timeout", x.attemptTimeout),
		slog.Duration("backoff_initial", x.initialInterval),
		slog.Duration("backoff_max", x.maxInterval),
	)
}

// Configure wraps llm into a Gateway. catalog and language may be empty.
func (x *Gateway) Configure(llm gollem.LLMClient, catalog gateway.Catalog, language string) (*gateway.Gateway, error) {
	if x.maxAttempts < 1 {
		return nil, goerr.New("gateway-max-attempts must be at least 1", goerr.V("value", x.maxAttempts))
	}
	if x.initialInterval <= 0 || x.maxInterval < x.initialInterval {
		return nil, goerr.New("invalid gateway backoff intervals",
			goerr.V("initial", x.initialInterval),
			goerr.V("max", x.maxInterval))
	}

	opts := []gateway.Option{
		gateway.WithMaxAttempts(int(x.maxAttempts)),
		gateway.WithAttemptTimeout(x.attemptTimeout),
		gateway.WithBackoff(x.initialInterval, x.maxInterval),
		gateway.WithLanguage(language),
	}
	if catalog != nil {
		opts = append(opts, gateway.WithCatalog(catalog))
	}

	gw, err := gateway.New(llm, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create AI gateway")
	}
	return gw, nil
}
