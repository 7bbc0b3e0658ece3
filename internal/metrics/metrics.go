package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OTP verify outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeMismatch = "mismatch"
	OutcomeError    = "error"
)

var (
	// OTP
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regportal_otp_issued_total",
		Help: "Total number of OTP issue attempts.",
	}, []string{"status"}) // status: "sent" | "send_failed" | "store_failed" | "error"
	OTPVerifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regportal_otp_verify_total",
		Help: "Total number of OTP verify attempts by outcome.",
	}, []string{"outcome"})

	// Registrations
	RegistrationsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regportal_registrations_submitted_total",
		Help: "Total number of accepted registrations.",
	})
	RegistrationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regportal_registrations_rejected_total",
		Help: "Total number of rejected registration submissions.",
	}, []string{"reason"})

	// Admin
	AdminLoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regportal_admin_login_total",
		Help: "Total number of admin login attempts.",
	}, []string{"status"}) // status: "success" | "failed"

	// Stats
	StatsRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regportal_stats_refresh_total",
		Help: "Total number of live stats refresh runs.",
	}, []string{"status"})
	RegistrationsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "regportal_registrations_total",
		Help: "Registration count as of the last stats refresh.",
	})

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
