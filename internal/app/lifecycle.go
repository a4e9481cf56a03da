package app

import (
	"sync"

	"figure-stand/internal/logger"
)

type component struct {
	name     string
	shutdown func()
}

// Lifecycle shuts registered components down once, in registration order.
type Lifecycle struct {
	mu         sync.Mutex
	components []component
	logger     logger.Logger
	isShutdown bool
}

func NewLifecycle(log logger.Logger) *Lifecycle {
	return &Lifecycle{logger: log}
}

func (l *Lifecycle) Register(name string, shutdown func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.components = append(l.components, component{name: name, shutdown: shutdown})
}

func (l *Lifecycle) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isShutdown {
		return
	}
	l.isShutdown = true

	l.logger.Info("Lifecycle", "shutdown sequence initiated", nil)
	for _, c := range l.components {
		c.shutdown()
		l.logger.Debug("Lifecycle", "component shut down", map[string]interface{}{
			"component": c.name,
		})
	}
	l.logger.Info("Lifecycle", "shutdown sequence completed", nil)
}
