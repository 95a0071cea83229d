package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Generation results
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultTimeout = "timeout"
	ResultInvalid = "invalid_output"

	// Aggregation results
	ResultNoData  = "no_data"
	ResultCreated = "created"
	ResultUpdated = "updated"

	// OTP events
	OTPIssued    = "issued"
	OTPVerified  = "verified"
	OTPMismatch  = "mismatch"
	OTPExpired   = "expired"
	OTPLockedOut = "locked_out"
)

// LLM provider metrics
var (
	LLMGenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_generation_total",
			Help: "Total number of text-generation provider calls",
		},
		[]string{"provider", "result"},
	)

	LLMGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "Duration of text-generation provider calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)
)

// Domain metrics
var (
	MealPlanGenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplan_generation_total",
			Help: "Meal plan generation requests by terminal state",
		},
		[]string{"state"},
	)

	ActivityAggregationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_aggregation_total",
			Help: "Daily activity aggregations by result",
		},
		[]string{"result"},
	)

	OTPEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_events_total",
			Help: "OTP issue and verification events",
		},
		[]string{"event"},
	)
)

// gRPC metrics
var (
	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "code"},
	)

	GRPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "gRPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
