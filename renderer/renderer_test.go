package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/richinsley/hotshader/plugin"
)

type fakeSource struct {
	entry AnimationFunc
	err   error
	prev  AnimationFunc
	loads int
}

func (s *fakeSource) Load() (AnimationFunc, error) {
	s.loads++
	return s.entry, s.err
}

func (s *fakeSource) Current() (AnimationFunc, bool) {
	return s.prev, s.prev != nil
}

func TestDefaultAnimation(t *testing.T) {
	tests := []struct {
		t    float32
		want float32
	}{
		{0, 0.5},
		{math32.Pi / 2, 1},
		{3 * math32.Pi / 2, 0},
	}
	for _, tt := range tests {
		if got := DefaultAnimation(tt.t); math32.Abs(got-tt.want) > 1e-5 {
			t.Errorf("DefaultAnimation(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestResolveAnimation(t *testing.T) {
	double := func(t float32) float32 { return 2 * t }

	tests := []struct {
		name    string
		src     *fakeSource
		at      float32
		want    float32
		wantErr bool
	}{
		{"plugin entry", &fakeSource{entry: double}, 3, 6, false},
		{"nil entry falls back", &fakeSource{}, 0, 0.5, false},
		{"open error falls back", &fakeSource{err: errors.New("bad elf")}, 0, 0.5, false},
		{"open error keeps previous entry", &fakeSource{err: errors.New("bad elf"), prev: double}, 4, 8, false},
		{"missing symbol is fatal", &fakeSource{err: fmt.Errorf("%w: mainAnimation", plugin.ErrSymbolNotFound)}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := resolveAnimation(tt.src)
			if tt.wantErr {
				if err == nil || fn != nil {
					t.Fatalf("resolveAnimation = %v, %v; want error", fn != nil, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := fn(tt.at); got != tt.want {
				t.Errorf("fn(%v) = %v, want %v", tt.at, got, tt.want)
			}
			if tt.src.loads != 1 {
				t.Errorf("Load called %d times", tt.src.loads)
			}
		})
	}
}

func TestResolveAnimationWithoutPlugin(t *testing.T) {
	fn, err := resolveAnimation(nil)
	if err != nil {
		t.Fatal(err)
	}
	if fn(0) != 0.5 {
		t.Errorf("fn(0) = %v", fn(0))
	}
}

func TestGroups(t *testing.T) {
	tests := []struct {
		w, h   int
		gx, gy uint32
	}{
		{8, 8, 1, 1},
		{9, 8, 2, 1},
		{1920, 1080, 240, 135},
		{1, 1, 1, 1},
	}
	for _, tt := range tests {
		gx, gy := groups(tt.w, tt.h)
		if gx != tt.gx || gy != tt.gy {
			t.Errorf("groups(%d, %d) = %d, %d; want %d, %d", tt.w, tt.h, gx, gy, tt.gx, tt.gy)
		}
	}
}

func TestUniformCacheLocations(t *testing.T) {
	lookups := map[string]int{}
	uc := NewUniformCache(7)
	uc.lookup = func(program uint32, name string) int32 {
		if program != 7 {
			t.Errorf("lookup on program %d", program)
		}
		lookups[name]++
		if name == "missing" {
			return -1
		}
		return int32(len(name))
	}

	if loc := uc.Location("iTime"); loc != 5 {
		t.Errorf("Location(iTime) = %d", loc)
	}
	uc.Location("iTime")
	uc.Location("missing")
	uc.Location("missing")
	if lookups["iTime"] != 1 || lookups["missing"] != 1 {
		t.Errorf("lookups = %v, want one per name", lookups)
	}

	uc.Clear()
	uc.Location("iTime")
	if lookups["iTime"] != 2 {
		t.Errorf("Clear did not drop cached location")
	}
}

func TestUniformCacheNameMapper(t *testing.T) {
	var seen []string
	uc := NewUniformCache(1)
	uc.lookup = func(_ uint32, name string) int32 {
		seen = append(seen, name)
		return 0
	}
	uc.Location("iTime")
	uc.SetNameMapper(func(name string) string { return "_u" + name })
	uc.Location("iTime")

	if len(seen) != 2 || seen[0] != "iTime" || seen[1] != "_uiTime" {
		t.Errorf("looked up %v", seen)
	}
}
