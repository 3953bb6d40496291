package component

import (
	"context"
	stderrors "errors"
	"testing"

	"go.uber.org/multierr"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

type describedComponent struct {
	mockComponent
	desc Description
}

func (d *describedComponent) Describe() Description { return d.desc }

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewNop())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry()
	if err := r.Register(&mockComponent{name: "monitor"}); err != nil {
		t.Fatal(err)
	}
	err := r.Register(&mockComponent{name: "monitor"})
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for duplicate, got %v", err)
	}
	if r.Get("monitor") == nil || r.Get("missing") != nil {
		t.Error("lookup mismatch")
	}
}

func TestStartStopOrder(t *testing.T) {
	r := newTestRegistry()
	var started, stopped []string
	for _, name := range []string{"telemetry", "monitor", "pipeline"} {
		_ = r.Register(&mockComponent{name: name, startOrder: &started, stopOrder: &stopped})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	wantStart := []string{"telemetry", "monitor", "pipeline"}
	wantStop := []string{"pipeline", "monitor", "telemetry"}
	for i := range wantStart {
		if started[i] != wantStart[i] || stopped[i] != wantStop[i] {
			t.Fatalf("start %v stop %v", started, stopped)
		}
	}
}

func TestStartAllErrorStopsOnlyStarted(t *testing.T) {
	r := newTestRegistry()
	var stopped []string
	_ = r.Register(&mockComponent{name: "a", stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "b", startErr: errors.CycleDetected(1, 2), stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "c", stopOrder: &stopped})

	err := r.StartAll(context.Background())
	if !errors.HasCode(err, errors.ErrCodeCycleDetected) {
		t.Fatalf("expected the component's own code, got %v", err)
	}
	_ = r.StopAll(context.Background())
	if len(stopped) != 1 || stopped[0] != "a" {
		t.Errorf("expected only a to stop, got %v", stopped)
	}
}

func TestStartAllWrapsPlainErrors(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(&mockComponent{name: "a", startErr: stderrors.New("boom")})
	if err := r.StartAll(context.Background()); !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestStopAllCombinesErrors(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: stderrors.New("a failed")})
	_ = r.Register(&mockComponent{name: "b", stopErr: stderrors.New("b failed")})
	_ = r.Register(&mockComponent{name: "c"})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d: %v", got, err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Errorf("second StopAll should be a no-op, got %v", err)
	}
}

func TestHealthAllAndSummary(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	_ = r.Register(&describedComponent{
		mockComponent: mockComponent{name: "b", health: Health{Name: "b", Status: StatusDegraded}},
		desc:          Description{Type: "server", Details: "addr=:8080", Port: 8080},
	})

	hs := r.HealthAll(context.Background())
	if len(hs) != 2 || hs[1].Status != StatusDegraded {
		t.Errorf("unexpected health %v", hs)
	}

	summary := r.Summary()
	if len(summary) != 1 || summary[0].Name != "b" || summary[0].Port != 8080 {
		t.Errorf("unexpected summary %v", summary)
	}
}

func TestBaseLazyComponentLifecycle(t *testing.T) {
	calls, closed := 0, 0
	c := NewBaseLazyComponent("telemetry", func(context.Context) error {
		calls++
		return nil
	}).WithCloser(func(context.Context) error {
		closed++
		return nil
	})

	if h := c.Health(context.Background()); h.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %v", h)
	}
	_ = c.Start(context.Background())
	_ = c.Start(context.Background())
	if calls != 1 || !c.IsInitialized() {
		t.Fatalf("initializer ran %d times", calls)
	}
	if h := c.Health(context.Background()); h.Status != StatusHealthy {
		t.Errorf("expected healthy, got %v", h)
	}

	_ = c.Stop(context.Background())
	_ = c.Stop(context.Background())
	if closed != 1 || c.IsInitialized() {
		t.Errorf("closer ran %d times", closed)
	}
}

func TestBaseLazyComponentRetriesFailures(t *testing.T) {
	fail := true
	c := NewBaseLazyComponent("x", func(context.Context) error {
		if fail {
			return stderrors.New("exporter unreachable")
		}
		return nil
	})

	if err := c.Initialize(context.Background()); !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if h := c.Health(context.Background()); h.Message != "exporter unreachable" {
		t.Errorf("health should carry the last error, got %v", h)
	}

	fail = false
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestBaseLazyComponentHealthCheck(t *testing.T) {
	c := NewBaseLazyComponent("x", func(context.Context) error { return nil }).
		WithHealthCheck(func(context.Context) error { return stderrors.New("slow") })
	_ = c.Start(context.Background())
	if h := c.Health(context.Background()); h.Status != StatusDegraded {
		t.Errorf("expected degraded, got %v", h)
	}
}

func TestNilInitializer(t *testing.T) {
	c := NewBaseLazyComponent("x", nil)
	if err := c.Initialize(context.Background()); !errors.HasCode(err, errors.ErrCodeInvalidState) {
		t.Errorf("expected INVALID_STATE, got %v", err)
	}
}

type routedComponent struct {
	mockComponent
}

func (r *routedComponent) Routes() []Route {
	return []Route{{Method: "GET", Path: "/health", Handler: "health"}}
}

func TestRoutesCollectsProviders(t *testing.T) {
	reg := NewRegistry(logger.NewNop())
	_ = reg.Register(&mockComponent{name: "plain"})
	_ = reg.Register(&routedComponent{mockComponent{name: "server"}})

	routes := reg.Routes()
	if len(routes) != 1 || routes[0].Path != "/health" {
		t.Errorf("unexpected routes %v", routes)
	}
}
