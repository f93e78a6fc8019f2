package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	tele "gopkg.in/telebot.v4"
)

var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lessonbot",
		Subsystem: "tg",
		Name:      "updates_total",
		Help:      "Inbound Telegram updates by kind.",
	}, []string{"kind"})

	handledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lessonbot",
		Subsystem: "tg",
		Name:      "handled_total",
		Help:      "Handled updates by handler and status.",
	}, []string{"handler", "status"})

	handlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lessonbot",
		Subsystem: "tg",
		Name:      "handler_duration_seconds",
		Help:      "Handler latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler"})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lessonbot",
		Subsystem: "tg",
		Name:      "panics_total",
		Help:      "Panics recovered in handlers.",
	})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lessonbot",
		Subsystem: "tg",
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limiter.",
	})
)

// ObserveHandler records one handled update.
func ObserveHandler(handler, status string, took time.Duration) {
	handledTotal.WithLabelValues(handler, status).Inc()
	handlerDuration.WithLabelValues(handler).Observe(took.Seconds())
}

// Keys holding per-update reply counters on tele.Context.
const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

// metricsContext wraps tele.Context to count sent messages and detect keyboard usage.
type metricsContext struct{ tele.Context }

// track counts a successful reply and returns err unchanged.
func (m metricsContext) track(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	n, _ := m.Get(messagesKey).(int)
	m.Set(messagesKey, n+1)
	if hasKeyboard(opts) {
		m.Set(keyboardKey, true)
	}
	return nil
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	return m.track(m.Context.Send(what, opts...), opts)
}

func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	return m.track(m.Context.Edit(what, opts...), opts)
}

func (m metricsContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.track(m.Context.EditOrSend(what, opts...), opts)
}

// MessageMetricsMiddleware counts the update and instruments context to track replies.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		updatesTotal.WithLabelValues(updateKind(c.Update())).Inc()
		c.Set(messagesKey, 0)
		c.Set(keyboardKey, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reports how many replies the handler sent and whether any carried a keyboard.
func GetCounters(c tele.Context) (messages int, keyboard bool) {
	messages, _ = c.Get(messagesKey).(int)
	keyboard, _ = c.Get(keyboardKey).(bool)
	return messages, keyboard
}
