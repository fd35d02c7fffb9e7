package rtsa

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NativeCalls counts calls into the vendor library by symbol and outcome.
	NativeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtsa_native_calls_total",
			Help: "Total number of calls into the Agora RTC library",
		},
		[]string{"op", "result"},
	)

	// StateTransitions tracks session state changes.
	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtsa_session_state_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	// InitializedSessions is 1 while a session holds the library.
	InitializedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rtsa_initialized_sessions",
			Help: "Number of sessions currently holding the native library",
		},
	)

	// CallbackEvents counts callbacks received from the library by kind.
	CallbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtsa_callback_events_total",
			Help: "Total number of event callbacks received from the library",
		},
		[]string{"event"},
	)

	// DroppedEvents counts events an EventChannel discarded because its
	// buffer was full.
	DroppedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rtsa_dropped_events_total",
			Help: "Total number of events dropped by full event channels",
		},
	)

	// VideoBytesSent counts payload bytes accepted by send_video_data.
	VideoBytesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rtsa_video_bytes_sent_total",
			Help: "Total number of video payload bytes sent",
		},
	)

	// VideoFramesSent counts frames accepted by send_video_data.
	VideoFramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rtsa_video_frames_sent_total",
			Help: "Total number of video frames sent",
		},
	)
)

func observeNativeCall(op string, code int32) {
	res := "ok"
	if code != 0 {
		res = "error"
	}
	NativeCalls.WithLabelValues(op, res).Inc()
}

func observeTransition(from, to State) {
	StateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	switch {
	case from == StateUninitialized && to != StateUninitialized:
		InitializedSessions.Inc()
	case from != StateUninitialized && to == StateUninitialized:
		InitializedSessions.Dec()
	}
}

func observeEvent(event string) {
	CallbackEvents.WithLabelValues(event).Inc()
}

func observeVideoSent(n int) {
	VideoFramesSent.Inc()
	VideoBytesSent.Add(float64(n))
}
