// Package publisher periodically pushes air-Q readings to an MQTT broker.
//
// Topics, with prefix "airq" and device id "abc":
//
//	airq/abc/availability  retained "online" / "offline"
//	airq/abc/info          retained device info JSON
//	airq/abc/state         retained LatestData JSON
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zberg/go-airq/pkg/airq"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// Source is the subset of *airq.Client the publisher reads from.
type Source interface {
	LatestData(ctx context.Context, opts airq.LatestDataOptions) (airq.Response, error)
	FetchDeviceInfo(ctx context.Context) (airq.DeviceInfo, error)
}

// Broker accepts messages for a topic.
type Broker interface {
	Publish(topic string, payload []byte, retained bool) error
}

// Topics are the per-device topic names.
type Topics struct {
	Availability string
	Info         string
	State        string
}

// TopicsFor builds the topic names below prefix for deviceID.
func TopicsFor(prefix, deviceID string) Topics {
	base := strings.Trim(prefix, "/") + "/" + deviceID
	return Topics{
		Availability: base + "/availability",
		Info:         base + "/info",
		State:        base + "/state",
	}
}

// Publisher polls a device and publishes its readings.
type Publisher struct {
	source   Source
	broker   Broker
	topics   Topics
	info     airq.DeviceInfo
	opts     airq.LatestDataOptions
	interval time.Duration
	logger   *slog.Logger
}

// New creates a publisher for the device described by info. logger may
// be nil.
func New(source Source, broker Broker, info airq.DeviceInfo, prefix string, interval time.Duration, opts airq.LatestDataOptions, logger *slog.Logger) (*Publisher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("publish interval must be positive, got %s", interval)
	}
	if info.ID == "" {
		return nil, errors.New("device id is required")
	}
	return &Publisher{
		source:   source,
		broker:   broker,
		topics:   TopicsFor(prefix, info.ID),
		info:     info,
		opts:     opts,
		interval: interval,
		logger:   logger,
	}, nil
}

func (p *Publisher) Topics() Topics {
	return p.topics
}

// Run publishes availability and info once, then the state every
// interval until ctx is cancelled. A failed poll is logged and retried on
// the next tick. On return the device is marked offline.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.broker.Publish(p.topics.Availability, []byte(payloadOnline), true); err != nil {
		return fmt.Errorf("publish availability: %w", err)
	}
	infoPayload, err := json.Marshal(p.info)
	if err != nil {
		return fmt.Errorf("encode info: %w", err)
	}
	if err := p.broker.Publish(p.topics.Info, infoPayload, true); err != nil {
		return fmt.Errorf("publish info: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.PublishOnce(ctx); err != nil && p.logger != nil {
			p.logger.Warn("publish failed", "topic", p.topics.State, "error", err)
		}
		select {
		case <-ctx.Done():
			if err := p.broker.Publish(p.topics.Availability, []byte(payloadOffline), true); err != nil {
				return fmt.Errorf("publish availability: %w", err)
			}
			return nil
		case <-ticker.C:
		}
	}
}

// PublishOnce polls the device and publishes a single state message.
func (p *Publisher) PublishOnce(ctx context.Context) error {
	data, err := p.source.LatestData(ctx, p.opts)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := p.broker.Publish(p.topics.State, payload, true); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	if p.logger != nil {
		p.logger.Debug("published state", "topic", p.topics.State, "bytes", len(payload))
	}
	return nil
}
