package component

import (
	"context"
	"sync"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
)

// BaseLazyComponent provides thread-safe lazy initialization for components
// that defer expensive setup, such as dialing an exporter, until first use.
type BaseLazyComponent struct {
	name        string
	mu          sync.RWMutex
	initialized bool
	lastError   error
	initializer func(ctx context.Context) error
	healthCheck func(ctx context.Context) error
	closer      func(ctx context.Context) error
}

// NewBaseLazyComponent creates a lazy component with the given initializer.
func NewBaseLazyComponent(name string, initializer func(context.Context) error) *BaseLazyComponent {
	return &BaseLazyComponent{
		name:        name,
		initializer: initializer,
	}
}

// Name returns the component name.
func (b *BaseLazyComponent) Name() string {
	return b.name
}

// Initialize performs thread-safe lazy initialization using double-check locking.
// A failed initializer is retried on the next call.
func (b *BaseLazyComponent) Initialize(ctx context.Context) error {
	b.mu.RLock()
	if b.initialized {
		b.mu.RUnlock()
		return nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	// Double-check after acquiring write lock
	if b.initialized {
		return nil
	}

	if b.initializer == nil {
		return errors.InvalidState("component "+b.name, "uninitialized", "initialize")
	}

	if err := b.initializer(ctx); err != nil {
		b.lastError = err
		return errors.Internal(err).WithDetail("component", b.name)
	}

	b.initialized = true
	b.lastError = nil
	logger.Debug("lazy component initialized", logger.Fields("component", b.name))
	return nil
}

// IsInitialized returns whether the component has been successfully initialized.
func (b *BaseLazyComponent) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// Start implements Component.
func (b *BaseLazyComponent) Start(ctx context.Context) error {
	return b.Initialize(ctx)
}

// Stop implements Component by running the closer once and marking the
// component uninitialized.
func (b *BaseLazyComponent) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.closer != nil && b.initialized {
		err = b.closer(ctx)
	}
	b.initialized = false
	return err
}

// Health implements Component.
func (b *BaseLazyComponent) Health(ctx context.Context) Health {
	h := Health{Name: b.name, Status: StatusHealthy}

	b.mu.RLock()
	initialized, lastErr := b.initialized, b.lastError
	b.mu.RUnlock()

	switch {
	case !initialized && lastErr != nil:
		h.Status = StatusUnhealthy
		h.Message = lastErr.Error()
	case !initialized:
		h.Status = StatusUnhealthy
		h.Message = "not initialized"
	case b.healthCheck != nil:
		if err := b.healthCheck(ctx); err != nil {
			h.Status = StatusDegraded
			h.Message = err.Error()
		}
	}
	return h
}

// WithHealthCheck sets a custom health check function.
func (b *BaseLazyComponent) WithHealthCheck(fn func(context.Context) error) *BaseLazyComponent {
	b.healthCheck = fn
	return b
}

// WithCloser sets a custom close function.
func (b *BaseLazyComponent) WithCloser(fn func(context.Context) error) *BaseLazyComponent {
	b.closer = fn
	return b
}
