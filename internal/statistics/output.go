package statistics

import (
	"github.com/kevinboone/pi-servo/internal/pwm"
	"github.com/prometheus/client_golang/prometheus"
)

const outputSubsystem = "output"

type OutputCollector struct {
	outputs []*pwm.Pwm

	duty          *prometheus.Desc
	onInterval    *prometheus.Desc
	offInterval   *prometheus.Desc
	cycles        *prometheus.Desc
	writeFailures *prometheus.Desc
	avgCycleTime  *prometheus.Desc
}

func NewOutputCollector(outputs []*pwm.Pwm) *OutputCollector {
	return &OutputCollector{
		outputs: outputs,
		duty: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "duty"),
			"Current duty fraction of the output",
			[]string{"id"}, nil,
		),
		onInterval: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "on_interval_usec"),
			"Length of the high phase in microseconds",
			[]string{"id"}, nil,
		),
		offInterval: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "off_interval_usec"),
			"Length of the low phase in microseconds",
			[]string{"id"}, nil,
		),
		cycles: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "cycles_total"),
			"Number of completed PWM cycles",
			[]string{"id"}, nil,
		),
		writeFailures: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "write_failures_total"),
			"Number of failed pin writes",
			[]string{"id"}, nil,
		),
		avgCycleTime: prometheus.NewDesc(prometheus.BuildFQName(namespace, outputSubsystem, "cycle_time_usec_avg"),
			"Rolling mean of measured cycle times in microseconds",
			[]string{"id"}, nil,
		),
	}
}

func (collector *OutputCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.duty
	ch <- collector.onInterval
	ch <- collector.offInterval
	ch <- collector.cycles
	ch <- collector.writeFailures
	ch <- collector.avgCycleTime
}

func (collector *OutputCollector) Collect(ch chan<- prometheus.Metric) {
	for _, output := range collector.outputs {
		outputId := output.Id()
		intervals := output.Intervals()
		ch <- prometheus.MustNewConstMetric(collector.duty, prometheus.GaugeValue, output.Duty(), outputId)
		ch <- prometheus.MustNewConstMetric(collector.onInterval, prometheus.GaugeValue, float64(intervals.On.Microseconds()), outputId)
		ch <- prometheus.MustNewConstMetric(collector.offInterval, prometheus.GaugeValue, float64(intervals.Off.Microseconds()), outputId)
		ch <- prometheus.MustNewConstMetric(collector.cycles, prometheus.CounterValue, float64(output.Cycles()), outputId)
		ch <- prometheus.MustNewConstMetric(collector.writeFailures, prometheus.CounterValue, float64(output.WriteFailures()), outputId)
		ch <- prometheus.MustNewConstMetric(collector.avgCycleTime, prometheus.GaugeValue, output.AvgCycleTime(), outputId)
	}
}
