package events

import (
	"time"

	"github.com/fleetgrid/service-zoning/internal/domain/zone"
	"github.com/google/uuid"
)

// Kafka topics this service produces to or consumes from.
const (
	TopicZoneEvents     = "zone.events"
	TopicFacilityEvents = "facility.events"
)

// CloudEvent source attribute for events emitted by this service.
const SourceZoning = "service-zoning"

// Event types on the zone topic.
const (
	ZonePlanDrafted   = "zone.plan.drafted"
	ZonePlanActivated = "zone.plan.activated"
	ZonePlanArchived  = "zone.plan.archived"
)

// Event types on the facility topic. This service both produces them (API
// registrations) and consumes them (fleet registry sync).
const (
	FacilityRegistered  = "facility.registered"
	FacilityUpdated     = "facility.updated"
	FacilityDeactivated = "facility.deactivated"
)

// ZonePlanDraftedEvent is published when a new draft plan is persisted.
type ZonePlanDraftedEvent struct {
	PlanID    uuid.UUID     `json:"plan_id"`
	Name      string        `json:"name"`
	Strategy  zone.Strategy `json:"strategy"`
	ZoneCount int           `json:"zone_count"`
	CreatedAt time.Time     `json:"created_at"`
}

// ZonePlanActivatedEvent is published when a plan becomes the active zoning.
type ZonePlanActivatedEvent struct {
	PlanID      uuid.UUID `json:"plan_id"`
	Name        string    `json:"name"`
	ZoneCount   int       `json:"zone_count"`
	ActivatedAt time.Time `json:"activated_at"`
}

// ZonePlanArchivedEvent is published when a plan is retired.
type ZonePlanArchivedEvent struct {
	PlanID     uuid.UUID `json:"plan_id"`
	Name       string    `json:"name"`
	ArchivedAt time.Time `json:"archived_at"`
}

// FacilityRegisteredEvent announces a new facility in the fleet registry.
type FacilityRegisteredEvent struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// FacilityUpdatedEvent announces a facility change (rename or move).
type FacilityUpdatedEvent struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// FacilityDeactivatedEvent announces a facility leaving the fleet.
type FacilityDeactivatedEvent struct {
	Code string `json:"code"`
}
