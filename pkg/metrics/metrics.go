package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MeetingOpsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calbridge",
		Subsystem: "meetings",
		Name:      "ops_count",
	}, []string{"op"})
	MeetingOpsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calbridge",
		Subsystem: "meetings",
		Name:      "ops_duration",
	}, []string{"op"})
	EmailErrCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calbridge",
		Subsystem: "email",
		Name:      "err_count",
	}, []string{"op"})
	CalendarErrCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calbridge",
		Subsystem: "calendar",
		Name:      "err_count",
	}, []string{"op"})
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "calbridge",
		Subsystem: "worker",
		Name:      "reminders_sent",
	})
)
