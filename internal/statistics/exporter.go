package statistics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "pi_servo"
)

func Register(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}
