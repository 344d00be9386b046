package mapping

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"webmvc/internal/infrastructure"
	"webmvc/internal/mvc"
)

// ManualName is the registry name of ManualMapping.
const ManualName = "manual"

// ManualMapping is populated by explicit Register calls during startup.
type ManualMapping struct {
	mu      sync.Mutex // guards builder and rejected until Initialize
	builder *tableBuilder
	// rejected is the first failed Register; it keeps Initialize from sealing.
	rejected error
	logger   *slog.Logger
	table    atomic.Pointer[table]
}

// NewManualMapping creates an empty manual mapping. A nil logger uses
// slog.Default.
func NewManualMapping(logger *slog.Logger) *ManualMapping {
	return &ManualMapping{
		builder: newTableBuilder(ManualName),
		logger:  infrastructure.WithComponent(logger, "manual_mapping"),
	}
}

// Name implements HandlerMapping.
func (m *ManualMapping) Name() string { return ManualName }

// Register binds handler to method and pattern. An empty method accepts every
// method. A rejected registration also makes Initialize fail.
func (m *ManualMapping) Register(method, pattern string, handler any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.builder == nil {
		return fmt.Errorf("%w: cannot register %s %s", ErrSealed, method, pattern)
	}
	key, err := m.add(method, pattern, handler)
	if err != nil {
		if m.rejected == nil {
			m.rejected = err
		}
		return err
	}
	m.logger.Debug("route registered", slog.String("route", key.String()), slog.String("handler", describe(handler)))
	return nil
}

func (m *ManualMapping) add(method, pattern string, handler any) (mvc.RouteKey, error) {
	if handler == nil {
		return mvc.RouteKey{}, fmt.Errorf("%w: nil handler for %s %s", ErrInvalidMapping, method, pattern)
	}
	key, err := mvc.NewRouteKey(method, pattern)
	if err != nil {
		return mvc.RouteKey{}, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	return key, m.builder.add(key, handler)
}

// MustRegister is like Register but panics on error.
func (m *ManualMapping) MustRegister(method, pattern string, handler any) {
	if err := m.Register(method, pattern, handler); err != nil {
		panic(err)
	}
}

// Initialize seals the mapping. Later calls are no-ops. If any Register call
// failed, the mapping stays unsealed and every call returns that error.
func (m *ManualMapping) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rejected != nil {
		return fmt.Errorf("manual mapping has a rejected route: %w", m.rejected)
	}
	if m.builder == nil {
		return nil
	}
	t := m.builder.build()
	m.builder = nil
	m.table.Store(t)
	m.logger.Info("manual mapping initialized", slog.Int("routes", len(t.routes)))
	return nil
}

// Resolve implements HandlerMapping. Before Initialize every request misses.
func (m *ManualMapping) Resolve(r *http.Request) mvc.Resolution {
	t := m.table.Load()
	if t == nil {
		return mvc.MissFor(r)
	}
	return t.resolve(r.Method, r.URL.Path)
}

// Routes implements HandlerMapping.
func (m *ManualMapping) Routes() []mvc.RouteInfo {
	t := m.table.Load()
	if t == nil {
		return nil
	}
	return t.info()
}
