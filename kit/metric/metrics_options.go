package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type (
	counterFn   func(vec *prometheus.CounterVec, o fnOpts)
	histogramFn func(vec *prometheus.HistogramVec, o fnOpts)
)

// VecOpts expands on the implementation of the type of metric vector.
type VecOpts struct {
	help       string
	labelNames []string

	counterFn   counterFn
	histogramFn histogramFn
}

type fnOpts struct {
	method string
	start  time.Time
	err    error
}

// RecordOptFn is an option for a recording.
type RecordOptFn func(opts *fnOpts)

type metricOpts struct {
	namespace        string
	service          string
	serviceSuffix    string
	counterMetrics   map[string]VecOpts
	histogramMetrics map[string]VecOpts
}

func (o metricOpts) serviceName() string {
	if o.serviceSuffix != "" {
		return fmt.Sprintf("%s_%s", o.service, o.serviceSuffix)
	}
	return o.service
}

// ClientOptFn is an option used by a metric middleware.
type ClientOptFn func(*metricOpts)

// WithSuffix returns a metric option that applies a suffix to the service name of the metric.
func WithSuffix(suffix string) ClientOptFn {
	return func(opts *metricOpts) {
		opts.serviceSuffix = suffix
	}
}

// ApplyMetricOpts applies the options to a base opts value.
func ApplyMetricOpts(opts ...ClientOptFn) *metricOpts {
	o := metricOpts{}
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

// ApplySuffix applies the service suffix to the provided prefix.
func (o *metricOpts) ApplySuffix(prefix string) string {
	if o.serviceSuffix != "" {
		return fmt.Sprintf("%s_%s", prefix, o.serviceSuffix)
	}
	return prefix
}
