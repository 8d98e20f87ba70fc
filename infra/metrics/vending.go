package metrics

import (
	"github.com/giovaniif/vending/domain/bank"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Recorder counts purchase outcomes and dispensed coins.
type Recorder struct {
	purchases       *prometheus.CounterVec
	coinsDispensed  *prometheus.CounterVec
	changeShortfall prometheus.Counter
	undispensed     prometheus.Counter
}

func NewRecorder(registerer prometheus.Registerer) *Recorder {
	factory := promauto.With(registerer)
	return &Recorder{
		purchases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vending_purchases_total",
				Help: "Purchases by outcome",
			},
			[]string{"outcome"},
		),
		coinsDispensed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vending_coins_dispensed_total",
				Help: "Coins dispensed as change by denomination",
			},
			[]string{"denomination"},
		),
		changeShortfall: factory.NewCounter(prometheus.CounterOpts{
			Name: "vending_change_shortfall_total",
			Help: "Sales whose change could not be fully dispensed",
		}),
		undispensed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vending_change_undispensed_amount_total",
			Help: "Sum of change owed but not dispensed",
		}),
	}
}

func (r *Recorder) RecordPurchase(outcome string) {
	r.purchases.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordChange(change bank.Change) {
	for _, coin := range change.Dispensed {
		r.coinsDispensed.WithLabelValues(coin.Denomination.StringFixed(2)).Add(float64(coin.Count))
	}
	if !change.Complete() {
		r.changeShortfall.Inc()
		r.undispensed.Add(change.Undispensed.InexactFloat64())
	}
}

type Ledger interface {
	Ledger() []bank.Coin
	Total() decimal.Decimal
}

// LedgerCollector exposes the register's coin stock and collected total at scrape time.
type LedgerCollector struct {
	ledger    Ledger
	coinStock *prometheus.Desc
	collected *prometheus.Desc
}

func NewLedgerCollector(ledger Ledger) *LedgerCollector {
	return &LedgerCollector{
		ledger: ledger,
		coinStock: prometheus.NewDesc(
			"vending_coin_stock",
			"Coins left in the register by denomination",
			[]string{"denomination"}, nil,
		),
		collected: prometheus.NewDesc(
			"vending_collected_amount",
			"Money collected by the register",
			nil, nil,
		),
	}
}

func (c *LedgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.coinStock
	ch <- c.collected
}

func (c *LedgerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, coin := range c.ledger.Ledger() {
		ch <- prometheus.MustNewConstMetric(c.coinStock, prometheus.GaugeValue, float64(coin.Count), coin.Denomination.StringFixed(2))
	}
	ch <- prometheus.MustNewConstMetric(c.collected, prometheus.GaugeValue, c.ledger.Total().InexactFloat64())
}
