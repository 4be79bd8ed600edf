package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "waselni"

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultCoalesced = "coalesced"
	ReasonUser      = "user"
	ReasonForced    = "forced"
)

// Session counts request, refresh and logout activity of one session.
type Session struct {
	Registry *prometheus.Registry
	Requests *prometheus.CounterVec
	Refresh  *prometheus.CounterVec
	Retries  prometheus.Counter
	Logouts  *prometheus.CounterVec
}

func NewSession() *Session {
	m := &Session{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Requests issued through the session, by final outcome.",
		}, []string{"outcome"}),
		Refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Access token refresh attempts, by result.",
		}, []string{"result"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "retries_total",
			Help:      "Requests re-issued after an authorization failure.",
		}),
		Logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Session logouts, by reason.",
		}, []string{"reason"}),
	}

	m.Registry.MustRegister(m.Requests, m.Refresh, m.Retries, m.Logouts)
	return m
}

// Sample is one counter value with its labels rendered as k=v pairs.
type Sample struct {
	Name   string  `json:"name"`
	Labels string  `json:"labels,omitempty"`
	Value  float64 `json:"value"`
}

// Snapshot gathers every counter with a non-zero value, sorted by name and labels.
func (m *Session) Snapshot() ([]Sample, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value := metric.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			samples = append(samples, Sample{
				Name:   family.GetName(),
				Labels: renderLabels(metric.GetLabel()),
				Value:  value,
			})
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})

	return samples, nil
}

func renderLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, pair.GetName()+"="+pair.GetValue())
	}
	return strings.Join(parts, ",")
}
