// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rooms

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "oxpoll",
		Name:      "rooms_active",
		Help:      "Polls with at least one live connection.",
	})

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "oxpoll",
		Name:      "room_connections",
		Help:      "Live connections joined to any room.",
	})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oxpoll",
		Name:      "broadcasts_total",
		Help:      "Room broadcasts attempted.",
	})

	broadcastDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oxpoll",
		Name:      "broadcast_deliveries_total",
		Help:      "Messages accepted by a connection's send buffer.",
	})

	broadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oxpoll",
		Name:      "broadcast_dropped_total",
		Help:      "Connections pruned because a send failed.",
	})
)
