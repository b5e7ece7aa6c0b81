// Package events carries appointment-changed notifications over Kafka so every
// instance drops cached results for the affected tenant.
package events

import "time"

const DefaultTopic = "salon.appointment.changed.v1"

// EventTypeAppointmentChanged goes in the event_type header whatever topic carries it.
const EventTypeAppointmentChanged = "appointment.changed"

// AppointmentChanged is published after any write to an appointment row.
// Writers outside this service publish the same shape.
type AppointmentChanged struct {
	TenantID      int64     `json:"tenant_id"`
	AppointmentID int64     `json:"appointment_id,omitempty"`
	ChangedAt     time.Time `json:"changed_at"`
}
