package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"wallet_network/internal/app/port"
	"wallet_network/internal/domain/entity"
)

const namespace = "wallet_network"

var statuses = []entity.SessionStatus{
	entity.StatusDisconnected,
	entity.StatusConnecting,
	entity.StatusConnected,
}

// Collector records coordinator activity as Prometheus metrics.
type Collector struct {
	switchesTotal *prometheus.CounterVec
	switchFails   *prometheus.CounterVec
	inFlight      prometheus.Gauge
	status        *prometheus.GaugeVec
	txFee         prometheus.Gauge
}

var _ port.Metrics = (*Collector)(nil)

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		switchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "network_switches_total",
			Help:      "Network switch attempts by target network.",
		}, []string{"network"}),
		switchFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "network_switch_failures_total",
			Help:      "Failed network switches by target network.",
		}, []string{"network"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_switch_in_progress",
			Help:      "1 while a network switch is running.",
		}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_status",
			Help:      "Current session status, 1 for the active status.",
		}, []string{"status"}),
		txFee: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tx_fee",
			Help:      "Last known base transaction fee of the active network.",
		}),
	}

	for _, collector := range []prometheus.Collector{c.switchesTotal, c.switchFails, c.inFlight, c.status, c.txFee} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	c.StatusChanged(entity.StatusDisconnected)
	return c, nil
}

func (c *Collector) SwitchStarted(network string) {
	c.switchesTotal.WithLabelValues(network).Inc()
	c.inFlight.Set(1)
}

func (c *Collector) SwitchFinished(network string, err error) {
	c.inFlight.Set(0)
	if err != nil {
		c.switchFails.WithLabelValues(network).Inc()
	}
}

func (c *Collector) StatusChanged(status entity.SessionStatus) {
	for _, s := range statuses {
		v := 0.0
		if s == status {
			v = 1
		}
		c.status.WithLabelValues(string(s)).Set(v)
	}
}

func (c *Collector) TxFeeUpdated(fee float64) {
	c.txFee.Set(fee)
}
