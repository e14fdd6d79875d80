package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	compilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blade_compiles_total",
			Help: "Template compilation passes by result",
		},
		[]string{"result"},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blade_render_duration_seconds",
			Help:    "Time spent rendering a compiled template",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view", "result"},
	)

	directiveDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blade_vue_directive_max_depth",
			Help:    "Deepest @vue nesting seen per compilation pass",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
	)
)

// ObserveCompile counts one compilation pass.
func ObserveCompile(err error) {
	compilesTotal.WithLabelValues(result(err)).Inc()
}

// UnknownView labels renders of views that do not exist, keeping the view
// label bounded by the files on disk.
const UnknownView = "unknown"

// ObserveRender records the render time of view.
func ObserveRender(view string, start time.Time, err error) {
	renderDuration.WithLabelValues(view, result(err)).Observe(time.Since(start).Seconds())
}

// ObserveDirectiveDepth records the nesting high-water mark of a pass.
func ObserveDirectiveDepth(depth int) {
	directiveDepth.Observe(float64(depth))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
