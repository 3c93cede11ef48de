package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/mem"
)

// systemCollector samples host memory on every scrape.
type systemCollector struct {
	memTotal *prometheus.Desc
	memUsed  *prometheus.Desc
	memPct   *prometheus.Desc
}

func newSystemCollector() *systemCollector {
	return &systemCollector{
		memTotal: prometheus.NewDesc("system_memory_total_bytes", "Total host memory", nil, nil),
		memUsed:  prometheus.NewDesc("system_memory_used_bytes", "Used host memory", nil, nil),
		memPct:   prometheus.NewDesc("system_memory_used_percent", "Used host memory percentage", nil, nil),
	}
}

func (c *systemCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.memTotal
	ch <- c.memUsed
	ch <- c.memPct
}

func (c *systemCollector) Collect(ch chan<- prometheus.Metric) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		// Skip the sample rather than fail the whole scrape.
		return
	}
	ch <- prometheus.MustNewConstMetric(c.memTotal, prometheus.GaugeValue, float64(vm.Total))
	ch <- prometheus.MustNewConstMetric(c.memUsed, prometheus.GaugeValue, float64(vm.Used))
	ch <- prometheus.MustNewConstMetric(c.memPct, prometheus.GaugeValue, vm.UsedPercent)
}
