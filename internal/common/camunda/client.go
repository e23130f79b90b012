package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/cenkalti/backoff/v4"

	"connector-workers/internal/common/config"
	"connector-workers/internal/common/errors"
	"connector-workers/internal/common/logger"
)

// Client wraps the Zeebe gRPC client with connect retry and health checks.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	MaxElapsed             time.Duration
}

func ClientConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	return &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: cfg.UsePlaintext,
		ConnectionTimeout:      config.GetDuration(cfg.ConnectTimeout),
		MaxElapsed:             config.GetDuration(cfg.ConnectMaxElapsed),
	}
}

// Connect creates the client and waits for the broker topology, retrying
// with exponential backoff until MaxElapsed.
func Connect(ctx context.Context, cfg *ClientConfig, log logger.Logger) (*Client, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Second
	expo.MaxInterval = 10 * time.Second
	expo.MaxElapsedTime = cfg.MaxElapsed

	attempt := 0
	var connected zbc.Client
	op := func() error {
		attempt++
		zc, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.GatewayAddress,
			UsePlaintextConnection: cfg.UsePlaintextConnection,
		})
		if err != nil {
			return err
		}

		topologyCtx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
		if _, err := zc.NewTopologyCommand().Send(topologyCtx); err != nil {
			_ = zc.Close()
			if !isRetryableZeebeError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		connected = zc
		return nil
	}

	notify := func(err error, next time.Duration) {
		log.Warn("zeebe connection failed, retrying", map[string]interface{}{
			"gateway":     cfg.GatewayAddress,
			"attempt":     attempt,
			"nextRetryIn": next.String(),
			"error":       err.Error(),
		})
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(expo, ctx), notify); err != nil {
		return nil, mapZeebeError(err, "connect", attempt)
	}

	return &Client{client: connected, config: cfg}, nil
}

// GetClient returns the raw Zeebe client for opening job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck performs a topology request against the broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func mapZeebeError(err error, operation string, attempts int) error {
	msg := fmt.Sprintf("zeebe operation '%s' failed after %d attempts: %s", operation, attempts, err.Error())
	lower := strings.ToLower(err.Error())

	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return errors.NewTimeoutError("zeebe", fmt.Errorf("%s", msg))
	}
	return errors.NewExternalServiceError("zeebe", fmt.Errorf("%s", msg))
}
