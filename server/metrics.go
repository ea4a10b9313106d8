package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rachel_games_created_total",
		Help: "Number of games created through the API.",
	})

	movesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rachel_moves_total",
		Help: "Moves submitted through the API, by kind and outcome.",
	}, []string{"kind", "outcome"})

	observersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rachel_observers_connected",
		Help: "Currently attached WebSocket observers.",
	})
)

func recordMove(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	movesTotal.WithLabelValues(kind, outcome).Inc()
}
