package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const metricPrefix = "ecosoul_"

// MetricSample is one flattened metric value.
type MetricSample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// String renders the sample in exposition style: name{k="v"} value.
func (s MetricSample) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if len(s.Labels) > 0 {
		keys := make([]string, 0, len(s.Labels))
		for k := range s.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%s=%q", k, s.Labels[k])
		}
		b.WriteByte('}')
	}
	fmt.Fprintf(&b, " %g", s.Value)
	return b.String()
}

func gatherMetrics(g prometheus.Gatherer, prefix string) ([]MetricSample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	return samplesFrom(families, prefix), nil
}

// samplesFrom flattens counters, gauges and histograms whose name starts
// with prefix. Histograms contribute _count and _sum samples.
func samplesFrom(families []*dto.MetricFamily, prefix string) []MetricSample {
	var out []MetricSample
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := labelMap(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, MetricSample{Name: name, Labels: labels, Value: m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				out = append(out, MetricSample{Name: name, Labels: labels, Value: m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				out = append(out,
					MetricSample{Name: name + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
					MetricSample{Name: name + "_sum", Labels: labels, Value: h.GetSampleSum()},
				)
			}
		}
	}
	return out
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, lp := range pairs {
		m[lp.GetName()] = lp.GetValue()
	}
	return m
}

func writeMetrics(w io.Writer, samples []MetricSample) {
	fmt.Fprintln(w, "Metrics:")
	for _, s := range samples {
		fmt.Fprintf(w, "  %s\n", s)
	}
}
