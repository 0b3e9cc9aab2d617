package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Indicators counts API traffic. Behind an interface so tests can run
// without a registry.
type Indicators interface {
	IncTx(contract string, ok bool)
	IncQuery(path string)
}

type PromIndicators struct {
	txTotal    *prometheus.CounterVec
	queryTotal *prometheus.CounterVec
}

var _ Indicators = (*PromIndicators)(nil)

func NewPromIndicators(reg prometheus.Registerer) *PromIndicators {
	factory := promauto.With(reg)
	return &PromIndicators{
		txTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powergrid_api_tx_total",
			Help: "Transactions submitted through the API, by contract and result.",
		}, []string{"contract", "result"}),
		queryTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "powergrid_api_query_total",
			Help: "Read queries served by the API, by route.",
		}, []string{"route"}),
	}
}

func (p *PromIndicators) IncTx(contract string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	p.txTotal.WithLabelValues(contract, result).Inc()
}

func (p *PromIndicators) IncQuery(route string) {
	p.queryTotal.WithLabelValues(route).Inc()
}

// NopIndicators drops all counts.
type NopIndicators struct{}

var _ Indicators = NopIndicators{}

func (NopIndicators) IncTx(string, bool) {}
func (NopIndicators) IncQuery(string)    {}
