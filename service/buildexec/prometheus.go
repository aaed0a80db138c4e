package buildexec

import "github.com/prometheus/client_golang/prometheus"

var (
	dispatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "submission_controller",
		Subsystem: "build",
		Name:      "dispatched_total",
		Help:      "构建任务派发总数",
	})
	failedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "submission_controller",
		Subsystem: "build",
		Name:      "dispatch_failed_total",
		Help:      "构建任务派发失败总数",
	})
	activeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "submission_controller",
		Subsystem: "build",
		Name:      "dispatch_active",
		Help:      "正在派发的构建任务数",
	})
)

func init() {
	prometheus.MustRegister(dispatchedTotal, failedTotal, activeGauge)
}
