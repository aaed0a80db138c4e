package web

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/to404hanga/submission_controller/pkg/errs"
)

var (
	intakeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "submission_controller",
			Subsystem: "submission",
			Name:      "intake_requests_total",
			Help:      "Submission intake requests total.",
		},
		[]string{"method", "code", "reason"},
	)
	intakeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "submission_controller",
			Subsystem: "submission",
			Name:      "intake_duration_seconds",
			Help:      "Submission intake duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "code", "reason"},
	)
	buildCallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "submission_controller",
			Subsystem: "submission",
			Name:      "build_callback_total",
			Help:      "Build result callbacks total.",
		},
		[]string{"outcome", "code"},
	)
	exportFinalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "submission_controller",
			Subsystem: "final",
			Name:      "export_requests_total",
			Help:      "ExportFinal requests total.",
		},
		[]string{"type", "code"},
	)
	exportFinalDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "submission_controller",
			Subsystem: "final",
			Name:      "export_duration_seconds",
			Help:      "ExportFinal duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		intakeRequestsTotal,
		intakeDurationSeconds,
		buildCallbackTotal,
		exportFinalRequestsTotal,
		exportFinalDurationSeconds,
	)
}

// observeIntake 记录一次受理请求, err 为空时 reason 为 ok
func observeIntake(method string, start time.Time, err error) {
	code := strconv.Itoa(errs.HTTPStatus(err))
	reason := "ok"
	if err != nil {
		reason = errs.KindOf(err).String()
	}
	intakeRequestsTotal.WithLabelValues(method, code, reason).Inc()
	intakeDurationSeconds.WithLabelValues(method, code, reason).Observe(time.Since(start).Seconds())
}
