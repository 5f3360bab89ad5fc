// Package-level configuration for structured logging, backed by logiface
// and its stumpy writer. A package-level logger is appropriate here: every
// carrier and thread operation shares the same logging sink, and asking
// callers to thread a logger through every API call would bloat the
// surface area for no benefit.
package thread

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Category identifies which component emitted a log entry.
type Category string

const (
	CategoryCarrier   Category = "carrier"
	CategoryDispatch  Category = "dispatch"
	CategoryJoin      Category = "join"
	CategoryMutex     Category = "mutex"
	CategorySignal    Category = "signal"
	CategoryBootstrap Category = "bootstrap"
)

var currentLogger atomic.Pointer[logiface.Logger[*stumpy.Event]]

func init() {
	currentLogger.Store(stumpy.L.New(stumpy.WithStumpy()))
}

// SetLogger replaces the package-level logger. Call before [Init] to
// avoid a race with carriers that have already started logging.
func SetLogger(l *logiface.Logger[*stumpy.Event]) {
	if l == nil {
		l = stumpy.L.New(stumpy.WithStumpy())
	}
	currentLogger.Store(l)
}

func logger() *logiface.Logger[*stumpy.Event] {
	return currentLogger.Load()
}

type fieldFunc = func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event]

func logDebug(cat Category, msg string, fields ...fieldFunc) {
	b := logger().Debug()
	if b == nil {
		return
	}
	b = b.Str("category", string(cat))
	for _, f := range fields {
		b = f(b)
	}
	b.Log(msg)
}

func logInfo(cat Category, msg string, fields ...fieldFunc) {
	b := logger().Info()
	if b == nil {
		return
	}
	b = b.Str("category", string(cat))
	for _, f := range fields {
		b = f(b)
	}
	b.Log(msg)
}

func logErr(cat Category, msg string, err error) {
	b := logger().Err()
	if b == nil {
		return
	}
	b.Str("category", string(cat)).Err(err).Log(msg)
}

func withThreadID(id int) fieldFunc {
	return func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Int("thread_id", id)
	}
}

func withCarrierID(id int) fieldFunc {
	return func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Int("carrier_id", id)
	}
}

func withCarrierCount(n int) fieldFunc {
	return func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Int("carriers", n)
	}
}

func withSignal(sig int) fieldFunc {
	return func(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
		return b.Int("signal", sig)
	}
}
