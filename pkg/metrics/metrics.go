package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncmart", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncmart", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	Mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncmart", Name: "mutations_total", Help: "Gateway mutations by operation and outcome kind."},
		[]string{"op", "result"},
	)
	LivePublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "syncmart", Name: "live_publishes_total", Help: "Snapshots published by live views."},
		[]string{"view"},
	)
	OpenSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "syncmart", Name: "open_subscriptions", Help: "Store subscriptions currently open by kind."},
		[]string{"kind"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Mutations)
	reg.MustRegister(LivePublishes)
	reg.MustRegister(OpenSubscriptions)
}
