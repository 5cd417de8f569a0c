package hook

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// Metrics owns the Prometheus collectors fed by monitor runs. One Metrics is
// shared by every run; Hook returns the per-run observer.
type Metrics struct {
	tasksStarted   *prometheus.CounterVec
	tasksCompleted *prometheus.CounterVec
	tasksRunning   *prometheus.GaugeVec
	taskRuntime    *prometheus.HistogramVec
	notifications  *prometheus.CounterVec
	taskProgress   *prometheus.GaugeVec
}

// NewMetrics registers the collectors against the provided registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		tasksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_tasks_started_total",
			Help: "Total monitored runs that have started.",
		}, []string{"monitor"}),
		tasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_tasks_completed_total",
			Help: "Total monitored runs that ended, partitioned by result.",
		}, []string{"monitor", "result"}),
		tasksRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "progress_tasks_running",
			Help: "Current number of running monitored runs.",
		}, []string{"monitor"}),
		taskRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "progress_task_runtime_seconds",
			Help:    "Wall time per finished run.",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 300, 1200},
		}, []string{"monitor", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_notifications_total",
			Help: "Notifications emitted, including start and terminal ones.",
		}, []string{"monitor"}),
		taskProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "progress_task_progress",
			Help: "Progress of the latest run at its last notification.",
		}, []string{"monitor"}),
	}
	for _, collector := range []prometheus.Collector{
		m.tasksStarted,
		m.tasksCompleted,
		m.tasksRunning,
		m.taskRuntime,
		m.notifications,
		m.taskProgress,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return m, nil
}

// Hook returns an observer for one run of monitor.
func (m *Metrics) Hook(monitor string) Hook {
	return &metricsHook{metrics: m, monitor: monitor}
}

type metricsHook struct {
	metrics *Metrics
	monitor string
	started bool
}

func (h *metricsHook) Handle(ev progress.Event) {
	m := h.metrics
	m.notifications.WithLabelValues(h.monitor).Inc()
	if ev.Task != nil {
		m.taskProgress.WithLabelValues(h.monitor).Set(float64(ev.Task.Progress()))
	}
	if !h.started {
		h.started = true
		m.tasksStarted.WithLabelValues(h.monitor).Inc()
		m.tasksRunning.WithLabelValues(h.monitor).Inc()
	}
	if !ev.Final() {
		return
	}
	result := "success"
	if ev.Err != nil || ev.Task == nil || !ev.Task.IsCompleted() {
		result = "error"
	}
	m.tasksCompleted.WithLabelValues(h.monitor, result).Inc()
	if ev.Task != nil {
		m.taskRuntime.WithLabelValues(h.monitor, result).Observe(ev.Task.Duration().Seconds())
	}
	m.tasksRunning.WithLabelValues(h.monitor).Dec()
	h.started = false
}
