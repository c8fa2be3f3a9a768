package odata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	resty "github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	KeepAlive             = 30 * time.Second
	IdleConnTimeout       = 90 * time.Second
)

// ClientConfig holds the endpoint and the timeouts bounding a fetch
type ClientConfig struct {
	ServiceURL     string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultClientConfig targets the public service with 30s timeouts
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServiceURL:     DefaultServiceURL,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
	}
}

// Client fetches product payloads from the OData service. It never retries.
type Client struct {
	config ClientConfig
	logger zerolog.Logger
	http   *resty.Client
}

func NewClient(config ClientConfig, logger zerolog.Logger) *Client {
	if config.ServiceURL == "" {
		config.ServiceURL = DefaultServiceURL
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}

	c := resty.New()
	c.SetLogger(&clientLogger{logger: logger})
	c.SetTransport(createTransport(config))
	// the transport bounds connect and response headers, this bounds the body read
	c.SetTimeout(config.ConnectTimeout + config.ReadTimeout)
	c.SetRetryCount(0)

	return &Client{config: config, logger: logger, http: c}
}

// createDialer bounds TCP connection establishment
func createDialer(config ClientConfig) *net.Dialer {
	return &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: KeepAlive,
	}
}

// createTransport applies the connect bound to dialing and the TLS handshake,
// and the read bound to waiting for response headers
func createTransport(config ClientConfig) *http.Transport {
	dialer := createDialer(config)
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   config.ConnectTimeout,
		ResponseHeaderTimeout: config.ReadTimeout,
		IdleConnTimeout:       IdleConnTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// ServiceURL returns the base endpoint the client targets
func (c *Client) ServiceURL() string {
	return c.config.ServiceURL
}

// HTTPClient exposes the underlying client, tests mount mock transports on it
func (c *Client) HTTPClient() *http.Client {
	return c.http.GetClient()
}

// Fetch runs the GET described by spec and returns the raw response body
func (c *Client) Fetch(ctx context.Context, spec QuerySpec) ([]byte, error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ErrCanceled
	}

	c.logger.Info().Str("url", RequestURL(c.config.ServiceURL, spec)).Msg("Sending OData request")

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParamsFromValues(BuildQuery(spec)).
		Get(c.config.ServiceURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ErrCanceled
		}
		return nil, &TransportError{URL: c.config.ServiceURL, Cause: err}
	}

	if !res.IsSuccess() {
		return nil, &RemoteServiceError{StatusCode: res.StatusCode()}
	}
	body := res.Body()
	if len(body) == 0 {
		return nil, &RemoteServiceError{StatusCode: res.StatusCode(), Reason: "empty response body"}
	}

	c.logger.Debug().Int("status", res.StatusCode()).Int("bytes", len(body)).Dur("took", res.Time()).Msg("OData response received")
	return body, nil
}

// clientLogger routes resty's internal messages to zerolog
type clientLogger struct {
	logger zerolog.Logger
}

func (l *clientLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, v...))
}

func (l *clientLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, v...))
}

func (l *clientLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprintf(format, v...))
}
