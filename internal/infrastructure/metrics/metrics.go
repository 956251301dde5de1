package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nowly_rooms_created_total",
		Help: "Rooms created",
	})

	RoomsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nowly_rooms_reaped_total",
		Help: "Rooms torn down after their lifetime elapsed",
	})

	LocationWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nowly_location_writes_total",
		Help: "Location record writes by kind (upsert, delete)",
	}, []string{"kind"})

	FeedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nowly_feed_events_total",
		Help: "Change-feed events fanned out to subscribers by type",
	}, []string{"type"})

	FeedDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nowly_feed_drops_total",
		Help: "Change-feed events dropped due to slow subscribers",
	})

	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nowly_feed_subscribers",
		Help: "Active change-feed subscriptions",
	})

	FeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nowly_ws_clients",
		Help: "Connected websocket feed clients",
	})
)
