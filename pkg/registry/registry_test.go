package registry

import (
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

func desk(y float64) surface.Surface {
	return surface.Surface{
		ID:     "desk",
		Kind:   surface.KindDesk,
		Origin: r3.Vec{Y: y},
		UAxis:  r3.Vec{X: 1.4},
		VAxis:  r3.Vec{Z: 0.7},
	}
}

func TestRegisterNotifiesOnlyOnChange(t *testing.T) {
	r := New()
	var events []Event
	cancel := r.Subscribe(func(ev Event) { events = append(events, ev) })
	defer cancel()

	steps := []struct {
		name        string
		surface     surface.Surface
		wantChanged bool
	}{
		{"first", desk(0.75), true},
		{"identical", desk(0.75), false},
		{"moved", desk(0.76), true},
		{"identical again", desk(0.76), false},
	}
	for _, st := range steps {
		changed, err := r.Register(st.surface)
		if err != nil {
			t.Fatalf("%s: Register: %v", st.name, err)
		}
		if changed != st.wantChanged {
			t.Errorf("%s: changed = %v, want %v", st.name, changed, st.wantChanged)
		}
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Surface == nil || events[1].Surface.Origin.Y != 0.76 {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestOverrideShadowsBase(t *testing.T) {
	r := New(desk(0.70))

	s, err := r.Get("desk")
	if err != nil || s.Origin.Y != 0.70 {
		t.Fatalf("base Get = %v, %v", s, err)
	}

	if _, err := r.Register(desk(0.75)); err != nil {
		t.Fatal(err)
	}
	if s, _ := r.Lookup("desk"); s.Origin.Y != 0.75 {
		t.Errorf("override not applied: %v", s.Origin)
	}

	var got []Event
	r.Subscribe(func(ev Event) { got = append(got, ev) })
	if !r.Unregister("desk") {
		t.Fatal("Unregister should report an override existed")
	}
	if s, _ := r.Lookup("desk"); s.Origin.Y != 0.70 {
		t.Errorf("fallback after unregister: %v", s.Origin)
	}
	if len(got) != 1 || got[0].Surface == nil || got[0].Surface.Origin.Y != 0.70 {
		t.Errorf("unregister events = %+v", got)
	}
	if r.Unregister("desk") {
		t.Error("second Unregister should report false")
	}
}

func TestGetVersusLookup(t *testing.T) {
	r := New()
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) should report false")
	}
	_, err := r.Get("missing")
	if !errors.Is(err, errors.ErrCodeSurfaceNotFound) {
		t.Errorf("Get(missing) err = %v, want SURFACE_NOT_FOUND", err)
	}
}

func TestRegisterRejectsDegenerate(t *testing.T) {
	r := New()
	bad := desk(0.75)
	bad.VAxis = r3.Vec{X: 2}
	if _, err := r.Register(bad); !errors.Is(err, errors.ErrCodeDegenerateGeometry) {
		t.Errorf("err = %v, want DEGENERATE_GEOMETRY", err)
	}
	if _, ok := r.Lookup("desk"); ok {
		t.Error("degenerate surface should not be stored")
	}
}

func TestMetaFallsBackToDerived(t *testing.T) {
	r := New()
	s := desk(0.75)
	if _, err := r.Register(s); err != nil {
		t.Fatal(err)
	}
	m, ok := r.Meta("desk")
	if !ok || m.Extents.U != 1.4 || m.Extents.Thickness != 0 {
		t.Errorf("derived meta = %+v, %v", m, ok)
	}

	stored := s.Meta()
	stored.Extents.Thickness = 0.04
	if _, err := r.RegisterWithMeta(s, stored); err != nil {
		t.Fatal(err)
	}
	if m, _ := r.Meta("desk"); m.Extents.Thickness != 0.04 {
		t.Errorf("stored meta thickness = %v", m.Extents.Thickness)
	}
}

func TestCancelSubscription(t *testing.T) {
	r := New()
	calls := 0
	cancel := r.Subscribe(func(Event) { calls++ })
	cancel()
	cancel()
	if _, err := r.Register(desk(0.75)); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("cancelled subscriber called %d times", calls)
	}
}

func TestIndependentRegistries(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(y float64) {
			defer wg.Done()
			r := New()
			if _, err := r.Register(desk(y)); err != nil {
				t.Error(err)
				return
			}
			if s, _ := r.Lookup("desk"); s.Origin.Y != y {
				t.Errorf("registry leaked state: got %v want %v", s.Origin.Y, y)
			}
		}(float64(i))
	}
	wg.Wait()

	r := New(desk(0.7))
	if ids := r.IDs(); len(ids) != 1 || ids[0] != "desk" {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestSetMetaRequiresOverride(t *testing.T) {
	r := New(desk(0.7))
	if r.SetMeta("desk", surface.Meta{}) {
		t.Error("SetMeta on a base-only id should report false")
	}
	if _, err := r.Register(desk(0.75)); err != nil {
		t.Fatal(err)
	}
	if !r.SetMeta("desk", surface.Meta{Extents: surface.Extents{Thickness: 0.03}}) {
		t.Fatal("SetMeta should succeed after Register")
	}
	if m, _ := r.Meta("desk"); m.Extents.Thickness != 0.03 {
		t.Errorf("thickness = %v", m.Extents.Thickness)
	}
}
