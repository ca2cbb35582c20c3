package events

import (
	"context"
	"encoding/json"

	"github.com/fleetgrid/service-zoning/internal/common/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// FacilitySyncer applies facility changes announced by the fleet registry.
// Implemented by the facility application service.
type FacilitySyncer interface {
	SyncFacility(ctx context.Context, code, name string, lat, lng float64) error
	SyncDeactivation(ctx context.Context, code string) error
}

// FacilityEventConsumer keeps the local facility table in sync with the
// fleet registry by consuming its facility events.
type FacilityEventConsumer struct {
	consumer *kafka.Consumer
	service  FacilitySyncer
	logger   *zap.Logger
}

// NewFacilityEventConsumer creates a new FacilityEventConsumer.
func NewFacilityEventConsumer(
	brokers []string,
	groupID string,
	service FacilitySyncer,
	logger *zap.Logger,
) *FacilityEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicFacilityEvents, logger)
	return &FacilityEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming facility events. This blocks until the context is
// cancelled.
func (c *FacilityEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *FacilityEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *FacilityEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from facility topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	// Our own announcements come back on the same topic; syncing them again
	// would bump versions forever.
	if cloudEvent.Source == SourceZoning {
		return nil
	}

	switch cloudEvent.Type {
	case FacilityRegistered, FacilityUpdated:
		return c.handleUpsert(ctx, cloudEvent)
	case FacilityDeactivated:
		return c.handleDeactivation(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled facility event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *FacilityEventConsumer) handleUpsert(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt FacilityRegisteredEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse facility event data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("syncing facility from registry event",
		zap.String("code", evt.Code),
		zap.String("type", cloudEvent.Type),
	)

	if err := c.service.SyncFacility(ctx, evt.Code, evt.Name, evt.Lat, evt.Lng); err != nil {
		c.logger.Error("failed to sync facility",
			zap.String("code", evt.Code),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (c *FacilityEventConsumer) handleDeactivation(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt FacilityDeactivatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse facility deactivation data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	if err := c.service.SyncDeactivation(ctx, evt.Code); err != nil {
		c.logger.Error("failed to deactivate facility",
			zap.String("code", evt.Code),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("facility deactivated from registry event",
		zap.String("code", evt.Code),
	)
	return nil
}
