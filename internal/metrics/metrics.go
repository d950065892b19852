package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"parkslot/internal/entities"
)

const (
	metricPrefix = "parkslot_"

	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	bookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "bookings_total",
			Help: "Booking requests by category and result",
		},
		[]string{"category", "result"},
	)
	bookedSlotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "booked_slots_total",
			Help: "Slots committed by category",
		},
		[]string{"category"},
	)
	bookingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "booking_latency_seconds",
			Help:    "Booking latency in seconds, lock wait included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	feePreviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "fee_previews_total",
			Help: "Fee previews by night window",
		},
		[]string{"night"},
	)
	storeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "ledger_store_latency_seconds",
			Help:    "Ledger store latency by operation and result",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "result"},
	)
	slotsBooked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricPrefix + "slots_booked",
			Help: "Booked slots per category",
		},
		[]string{"category"},
	)
	slotsAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricPrefix + "slots_available",
			Help: "Free slots per category",
		},
		[]string{"category"},
	)
)

// Init registers the collectors with the given registerer, once.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			bookingsTotal,
			bookedSlotsTotal,
			bookingLatency,
			feePreviewsTotal,
			storeLatency,
			slotsBooked,
			slotsAvailable,
		)
	})
}

// ObserveBooking records one booking attempt.
func ObserveBooking(category, result string, slots int, start time.Time) {
	if category == "" {
		category = "unknown"
	}
	bookingsTotal.WithLabelValues(category, result).Inc()
	bookingLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
	if result == ResultSuccess {
		bookedSlotsTotal.WithLabelValues(category).Add(float64(slots))
	}
}

func ObserveFeePreview(night bool) {
	label := "false"
	if night {
		label = "true"
	}
	feePreviewsTotal.WithLabelValues(label).Inc()
}

// ObserveStore records a ledger load or save.
func ObserveStore(op string, start time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	storeLatency.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

// SetOccupancy updates the per-category gauges.
func SetOccupancy(occ []entities.Occupancy) {
	for _, o := range occ {
		slotsBooked.WithLabelValues(string(o.Category)).Set(float64(o.Booked))
		slotsAvailable.WithLabelValues(string(o.Category)).Set(float64(o.Available))
	}
}
