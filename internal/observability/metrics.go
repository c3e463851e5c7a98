package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcomes recorded by BookingAttempts.
const (
	BookingOutcomeBooked        = "booked"
	BookingOutcomeAlreadyBooked = "already_booked"
	BookingOutcomeFull          = "full"
	BookingOutcomeError         = "error"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civichub_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// BookingAttempts counts slot booking attempts by outcome.
	BookingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civichub_booking_attempts_total",
		Help: "Slot booking attempts by outcome",
	}, []string{"outcome"})

	// SessionEvents counts login, logout and signup events by result.
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civichub_session_events_total",
		Help: "Authentication events by type and result",
	}, []string{"event", "result"})
)
