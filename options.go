// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"net"
	"time"
)

const (
	defaultRetry      = 250 * time.Millisecond
	defaultTimeout    = 5 * time.Minute
	defaultMaxRetries = 10
)

// config carries the settings shared by every socket kind.
type config struct {
	sec        Security
	id         SocketIdentity
	log        *Logger
	retry      time.Duration
	maxRetries int
	queueSize  int
	dialer     net.Dialer
}

func newConfig(opts ...Option) config {
	cfg := config{
		sec:        nullSecurity{},
		log:        DefaultLogger,
		retry:      defaultRetry,
		maxRetries: defaultMaxRetries,
		queueSize:  DefaultQueueSize,
		dialer:     net.Dialer{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.id) == 0 {
		cfg.id = SocketIdentity(newUUID())
	}
	if cfg.log == nil {
		cfg.log = DefaultLogger
	}
	if cfg.sec == nil {
		cfg.sec = nullSecurity{}
	}
	return cfg
}

// Option configures some aspect of a socket.
type Option func(cfg *config)

// WithID configures a socket identity.
func WithID(id SocketIdentity) Option {
	return func(cfg *config) {
		cfg.id = id
	}
}

// WithSecurity configures a socket to use the given security
// mechanism. If the mechanism is nil, the NULL mechanism is used.
func WithSecurity(sec Security) Option {
	return func(cfg *config) {
		cfg.sec = sec
	}
}

// WithLogger sets a dedicated Logger for the socket.
func WithLogger(log *Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}

// WithQueueSize sets the per-peer outbound queue capacity.
func WithQueueSize(n int) Option {
	return func(cfg *config) {
		cfg.queueSize = n
	}
}

// WithDialerRetry configures the time to wait between two failed
// attempts at dialing an endpoint.
func WithDialerRetry(retry time.Duration) Option {
	return func(cfg *config) {
		cfg.retry = retry
	}
}

// WithDialerTimeout sets the maximum amount of time a dial will wait
// for a connect to complete.
func WithDialerTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.dialer.Timeout = timeout
	}
}

// WithDialerMaxRetries configures the maximum number of retries when
// dialing an endpoint (-1 means infinite retries).
func WithDialerMaxRetries(maxRetries int) Option {
	return func(cfg *config) {
		cfg.maxRetries = maxRetries
	}
}
