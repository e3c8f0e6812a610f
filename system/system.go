// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package system

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Info contains atomic counters and values for various broker statistics.
type Info struct {
	Version              string `json:"version"`               // the current version of the broker
	Started              int64  `json:"started"`               // the time the broker started in unix seconds
	Time                 int64  `json:"time"`                  // current time on the broker
	Uptime               int64  `json:"uptime"`                // the number of seconds the broker has been online
	BytesReceived        int64  `json:"bytes_received"`        // total number of bytes received since the broker started
	BytesSent            int64  `json:"bytes_sent"`            // total number of bytes sent since the broker started
	SubscribersConnected int64  `json:"subscribers_connected"` // number of currently connected subscribers across all listeners
	SubscribersMaximum   int64  `json:"subscribers_maximum"`   // maximum number of subscribers that have been concurrently connected
	SubscribersTotal     int64  `json:"subscribers_total"`     // total number of subscribers that have connected since the broker started
	MessagesReceived     int64  `json:"messages_received"`     // total number of publish messages received
	MessagesSent         int64  `json:"messages_sent"`         // total number of publish messages sent
	MessagesDropped      int64  `json:"messages_dropped"`      // total number of publish messages dropped to slow subscribers
	Retained             int64  `json:"retained"`              // total number of retained messages written
	Subscriptions        int64  `json:"subscriptions"`         // total number of subscriptions active on the broker
	PacketsReceived      int64  `json:"packets_received"`      // total number of control packets received
	PacketsSent          int64  `json:"packets_sent"`          // total number of control packets sent
	AuthFailures         int64  `json:"auth_failures"`         // total number of rejected token validations or topic authorizations
	MemoryAlloc          int64  `json:"memory_alloc"`          // memory currently allocated
	Threads              int64  `json:"threads"`               // number of active goroutines, named as threads for platform ambiguity
}

// Clone makes a copy of Info using atomic operation
func (i *Info) Clone() *Info {
	return &Info{
		Version:              i.Version,
		Started:              atomic.LoadInt64(&i.Started),
		Time:                 atomic.LoadInt64(&i.Time),
		Uptime:               atomic.LoadInt64(&i.Uptime),
		BytesReceived:        atomic.LoadInt64(&i.BytesReceived),
		BytesSent:            atomic.LoadInt64(&i.BytesSent),
		SubscribersConnected: atomic.LoadInt64(&i.SubscribersConnected),
		SubscribersMaximum:   atomic.LoadInt64(&i.SubscribersMaximum),
		SubscribersTotal:     atomic.LoadInt64(&i.SubscribersTotal),
		MessagesReceived:     atomic.LoadInt64(&i.MessagesReceived),
		MessagesSent:         atomic.LoadInt64(&i.MessagesSent),
		MessagesDropped:      atomic.LoadInt64(&i.MessagesDropped),
		Retained:             atomic.LoadInt64(&i.Retained),
		Subscriptions:        atomic.LoadInt64(&i.Subscriptions),
		PacketsReceived:      atomic.LoadInt64(&i.PacketsReceived),
		PacketsSent:          atomic.LoadInt64(&i.PacketsSent),
		AuthFailures:         atomic.LoadInt64(&i.AuthFailures),
		MemoryAlloc:          atomic.LoadInt64(&i.MemoryAlloc),
		Threads:              atomic.LoadInt64(&i.Threads),
	}
}

func (i *Info) RegisterPrometheusMetrics(registry prometheus.Registerer) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	type metrics struct {
		metricType string
		name       string
		help       string
		value      *int64
	}

	metricsList := []metrics{
		{"c", "bytes_received", "A counter of total number of bytes received", &i.BytesReceived},
		{"c", "bytes_sent", "A counter of total number of bytes sent", &i.BytesSent},
		{"g", "subscribers_connected", "A gauge of number of currently connected subscribers", &i.SubscribersConnected},
		{"c", "subscribers_maximum", "A count of maximum number of subscribers concurrently connected", &i.SubscribersMaximum},
		{"c", "subscribers_total", "A counter of total number of subscribers that have connected", &i.SubscribersTotal},
		{"c", "messages_received", "A counter of total number of publish messages received", &i.MessagesReceived},
		{"c", "messages_sent", "A counter of total number of publish messages sent", &i.MessagesSent},
		{"c", "messages_dropped", "A counter of total number of publish messages dropped to slow subscribers", &i.MessagesDropped},
		{"c", "retained", "A counter of total number of retained messages written", &i.Retained},
		{"g", "subscriptions", "A gauge of total number of subscriptions active on the broker", &i.Subscriptions},
		{"c", "packets_received", "A counter of the total number of packets received", &i.PacketsReceived},
		{"c", "packets_sent", "A counter of the total number of packets sent", &i.PacketsSent},
		{"c", "auth_failures", "A counter of rejected token validations and topic authorizations", &i.AuthFailures},
	}

	for _, m := range metricsList {
		m := m
		fn := func() float64 {
			return float64(atomic.LoadInt64(m.value))
		}

		switch m.metricType {
		case "c":
			registry.MustRegister(
				prometheus.NewCounterFunc(
					prometheus.CounterOpts{
						Name: m.name,
						Help: m.help,
					},
					fn,
				),
			)
		case "g":
			registry.MustRegister(
				prometheus.NewGaugeFunc(
					prometheus.GaugeOpts{
						Name: m.name,
						Help: m.help,
					},
					fn,
				),
			)
		}
	}
}
