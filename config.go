// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpipc

import "time"

// scratchBufferSize is B from the spec: the fixed-size read scratch buffer
// the worker reads into on every non-blocking attempt.
const scratchBufferSize = 128

// Config bundles the timing knobs and the control-plane throttle. All
// durations are optional; zero means "do not sleep".
type Config struct {
	// AfterConnectWaitTime is slept once, after the worker goroutine is
	// spawned, before Dial/Listen returns the Endpoint. Zero means no wait.
	AfterConnectWaitTime time.Duration

	// ReadIterationWaitTime is slept by the worker at the end of every loop
	// iteration, to cap CPU usage. Zero means no wait (busy loop).
	ReadIterationWaitTime time.Duration

	// ShutdownWaitTime is slept by Shutdown between signalling the worker
	// and closing the socket, giving the worker time to drain and exit.
	// Zero means no wait.
	ShutdownWaitTime time.Duration

	// CheckCount is the number of read iterations between control-plane
	// services (shutdown/query/busy-state-update draining). Smaller values
	// are more responsive but add channel overhead; must be at least 1.
	CheckCount uint32
}

// DefaultConfig returns the config used when no options are given:
// CheckCount=1 (service the control plane every iteration) and all
// durations zero (no sleeping).
func DefaultConfig() Config {
	return Config{CheckCount: 1}
}

// Option mutates a Config in place. Options are applied in order over
// DefaultConfig() by Dial/Listen.
type Option func(*Config)

// WithAfterConnectWait sets Config.AfterConnectWaitTime.
func WithAfterConnectWait(d time.Duration) Option {
	return func(c *Config) { c.AfterConnectWaitTime = d }
}

// WithReadIterationWait sets Config.ReadIterationWaitTime.
func WithReadIterationWait(d time.Duration) Option {
	return func(c *Config) { c.ReadIterationWaitTime = d }
}

// WithShutdownWait sets Config.ShutdownWaitTime.
func WithShutdownWait(d time.Duration) Option {
	return func(c *Config) { c.ShutdownWaitTime = d }
}

// WithCheckCount sets Config.CheckCount. n must be at least 1; n<1 is
// silently treated as 1.
func WithCheckCount(n uint32) Option {
	return func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.CheckCount = n
	}
}

func resolveConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, fn := range opts {
		fn(&cfg)
	}
	if cfg.CheckCount < 1 {
		cfg.CheckCount = 1
	}
	return cfg
}
