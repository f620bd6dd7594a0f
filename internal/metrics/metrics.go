package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Channel activity.
var (
	ChannelMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherings_channel_messages_total",
		Help: "Push messages received, by type.",
	}, []string{"type"})

	ChannelMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatherings_channel_malformed_total",
		Help: "Push frames dropped because they could not be decoded.",
	})

	ChannelReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatherings_channel_reconnects_total",
		Help: "Reconnection attempts after a dropped push connection.",
	})
)

// Refresh activity.
var (
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherings_refresh_total",
		Help: "Collection re-fetches, by collection.",
	}, []string{"collection"})

	RefreshFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherings_refresh_failures_total",
		Help: "Collection re-fetches that failed, by collection.",
	}, []string{"collection"})
)

// Notifications surfaced to the user.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatherings_notifications_total",
	Help: "Transient notifications shown, by level.",
}, []string{"level"})
