package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Indicators counts node activity. Behind an interface so tests can run
// without a registry.
type Indicators interface {
	IncMeterRead(ok bool)
	IncParticipation(ok bool)
	IncHeartbeat(ok bool)
}

type PromIndicators struct {
	meterReads     *prometheus.CounterVec
	participations *prometheus.CounterVec
	heartbeats     *prometheus.CounterVec
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(reg prometheus.Registerer) *PromIndicators {
	factory := promauto.With(reg)
	return &PromIndicators{
		meterReads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powergrid_oracle_meter_reads_total",
			Help: "Meter readings taken, by result.",
		}, []string{"result"}),
		participations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powergrid_oracle_participations_total",
			Help: "Grid event participations submitted, by result.",
		}, []string{"result"}),
		heartbeats: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powergrid_oracle_heartbeats_total",
			Help: "Registry heartbeats sent, by result.",
		}, []string{"result"}),
	}
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (p *PromIndicators) IncMeterRead(ok bool)     { p.meterReads.WithLabelValues(result(ok)).Inc() }
func (p *PromIndicators) IncParticipation(ok bool) { p.participations.WithLabelValues(result(ok)).Inc() }
func (p *PromIndicators) IncHeartbeat(ok bool)     { p.heartbeats.WithLabelValues(result(ok)).Inc() }

// NopIndicators drops all counts.
type NopIndicators struct{}

var _ Indicators = NopIndicators{}

func (NopIndicators) IncMeterRead(bool)     {}
func (NopIndicators) IncParticipation(bool) {}
func (NopIndicators) IncHeartbeat(bool)     {}
