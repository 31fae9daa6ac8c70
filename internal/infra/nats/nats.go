package natsclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/symph-co/shorturl/config"
)

const (
	defaultConnectTimeout = 5 * time.Second
	maxReconnects         = 10
)

// Connect creates a NATS connection (with JetStream available) using application config.
func Connect(cfg config.NATSConfig) (*nats.Conn, nats.JetStreamContext, error) {
	opts := []nats.Option{
		nats.Timeout(defaultConnectTimeout),
		nats.Name("shorturl"),
		nats.MaxReconnects(maxReconnects),
	}

	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(URL(cfg), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats: connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("nats: init jetstream: %w", err)
	}

	return conn, js, nil
}

// EnsureStream creates the stream described by sc unless it already exists.
func EnsureStream(js nats.JetStreamContext, sc *nats.StreamConfig) error {
	_, err := js.StreamInfo(sc.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("nats: stream info %s: %w", sc.Name, err)
	}
	if _, err := js.AddStream(sc); err != nil {
		return fmt.Errorf("nats: add stream %s: %w", sc.Name, err)
	}
	return nil
}

// URL renders the server address for cfg.
func URL(cfg config.NATSConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 4222
	}
	return fmt.Sprintf("nats://%s:%d", host, port)
}
