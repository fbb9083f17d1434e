package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AccessDecisions counts module checks by module, action and outcome
	// (allowed/denied).
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincore_access_decisions_total",
			Help: "Module access decisions made by the API",
		},
		[]string{"module", "action", "outcome"},
	)

	SignupSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincore_signup_steps_total",
			Help: "Signup step attempts by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	SigninAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincore_signin_attempts_total",
			Help: "Signin attempts by outcome",
		},
		[]string{"outcome"},
	)

	PermissionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincore_permission_changes_total",
			Help: "Permission table mutations by table",
		},
		[]string{"table"},
	)

	VerificationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincore_verification_duration_seconds",
			Help:    "Latency of calls to external verification providers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call", "outcome"},
	)
)

func Outcome(ok bool) string {
	if ok {
		return "allowed"
	}
	return "denied"
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
