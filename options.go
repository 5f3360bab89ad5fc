package thread

import "time"

// initOptions holds configuration resolved by [Init].
type initOptions struct {
	carriers      int
	stackSize     int
	quantum       time.Duration
	metricsEnable bool
}

// InitOption configures the runtime at [Init] time.
type InitOption interface {
	applyInit(*initOptions) error
}

type initOptionImpl struct {
	applyInitFunc func(*initOptions) error
}

func (o *initOptionImpl) applyInit(opts *initOptions) error {
	return o.applyInitFunc(opts)
}

// WithCarriers sets the number of carriers backing many-many threads.
// Defaults to [runtime.GOMAXPROCS](0).
func WithCarriers(n int) InitOption {
	return &initOptionImpl{func(opts *initOptions) error {
		if n <= 0 {
			return newStatusError("WithCarriers", StatusInvalidArgument)
		}
		opts.carriers = n
		return nil
	}}
}

// WithStackSize sets the guarded stack size allocated for every new
// thread, rounded up to the system page size. Defaults to 2 MiB.
func WithStackSize(bytes int) InitOption {
	return &initOptionImpl{func(opts *initOptions) error {
		if bytes <= 0 {
			return newStatusError("WithStackSize", StatusInvalidArgument)
		}
		opts.stackSize = bytes
		return nil
	}}
}

// WithQuantum sets the preemption interval each carrier's timer uses to
// interrupt the many-many thread it is currently running. Defaults to
// 10ms. A non-positive value disables preemption entirely (cooperative
// scheduling only).
func WithQuantum(d time.Duration) InitOption {
	return &initOptionImpl{func(opts *initOptions) error {
		opts.quantum = d
		return nil
	}}
}

// WithMetrics enables runtime metrics collection; see [Metrics].
func WithMetrics(enabled bool) InitOption {
	return &initOptionImpl{func(opts *initOptions) error {
		opts.metricsEnable = enabled
		return nil
	}}
}

func resolveInitOptions(opts []InitOption) (*initOptions, error) {
	cfg := &initOptions{
		carriers:  defaultCarrierCount(),
		stackSize: defaultStackSize,
		quantum:   defaultQuantum,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyInit(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
