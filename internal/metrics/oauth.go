// Package metrics define los collectors Prometheus del flujo OAuth. Vive
// aparte de http para evitar ciclos de import con los services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Initiations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_initiations_total",
		Help: "Inicios de login OAuth por provider y resultado",
	}, []string{"provider", "result"})

	Callbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_callbacks_total",
		Help: "Callbacks OAuth por provider y código de salida (success o error code)",
	}, []string{"provider", "code"})

	ProviderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oauth_provider_request_duration_seconds",
		Help:    "Latencia de las llamadas al provider (exchange)",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "op"})

	StateRecords = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "oauth_state_records",
		Help: "Registros de state vivos por provider (actualizado por /oauth/state/health)",
	}, []string{"provider"})
)

// Register registra los collectors en reg (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{Initiations, Callbacks, ProviderDuration, StateRecords} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObserveProvider registra la duración de una llamada al provider iniciada en start.
func ObserveProvider(provider, op string, start time.Time) {
	ProviderDuration.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}

// SetStateRecords reemplaza el gauge con el snapshot actual.
func SetStateRecords(byProvider map[string]int, providers []string) {
	for _, p := range providers {
		StateRecords.WithLabelValues(p).Set(float64(byProvider[p]))
	}
}
