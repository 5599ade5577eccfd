package hotload

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/richinsley/hotshader/graphics"
	"github.com/richinsley/hotshader/graphics/graphicstest"
	"github.com/richinsley/hotshader/shader"
)

const goodFrag = "#version 430\nvoid main(){gl_FragColor=vec4(1);}\n"

type fixture struct {
	t    *testing.T
	dev  *graphicstest.Device
	path string
	mt   time.Time
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t:    t,
		dev:  graphicstest.NewDevice(),
		path: filepath.Join(t.TempDir(), "shader.glsl"),
		mt:   time.Now().Add(-time.Hour).Truncate(time.Second),
	}
}

// write replaces the file and advances its mtime by one second.
func (f *fixture) write(body string) {
	f.t.Helper()
	if err := os.WriteFile(f.path, []byte(body), 0o644); err != nil {
		f.t.Fatal(err)
	}
	f.mt = f.mt.Add(time.Second)
	if err := os.Chtimes(f.path, f.mt, f.mt); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) program(mode Mode) *Program {
	return New(f.dev, f.dev.CreateProgram(), f.path, mode)
}

func mustCheck(t *testing.T, p *Program, want bool) {
	t.Helper()
	got, err := p.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got != want {
		t.Fatalf("Check = %v, want %v", got, want)
	}
}

func TestCheckMissingFileIsNoop(t *testing.T) {
	f := newFixture(t)
	p := f.program(ModeFullscreen)
	f.dev.ResetCalls()

	mustCheck(t, p, false)
	if len(f.dev.Calls) != 0 {
		t.Errorf("missing file made device calls: %v", f.dev.Calls)
	}
}

func TestCheckFirstLoad(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)
	handle := p.Handle()

	mustCheck(t, p, true)

	prog := f.dev.Programs[handle]
	if !prog.Linked || !prog.Validated {
		t.Fatalf("program not linked/validated: %+v", prog)
	}
	if len(prog.Attached) != 2 {
		t.Fatalf("attached %d shaders, want 2", len(prog.Attached))
	}
	vs := f.dev.Shaders[prog.Attached[0]]
	fs := f.dev.Shaders[prog.Attached[1]]
	if vs.Kind != graphics.VertexStage || fs.Kind != graphics.FragmentStage {
		t.Errorf("unexpected stage kinds %v, %v", vs.Kind, fs.Kind)
	}
	if !strings.Contains(vs.Source, "gl_VertexID") {
		t.Errorf("vertex stage is not the full-screen generator: %q", vs.Source)
	}
	if !strings.HasPrefix(fs.Source, "#version 430\n#define _FS\n") {
		t.Errorf("fragment stage source = %q", fs.Source)
	}
	if p.Handle() != handle {
		t.Error("program handle changed")
	}
}

func TestCheckUnchangedMakesNoCalls(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)
	mustCheck(t, p, true)

	f.dev.ResetCalls()
	for i := 0; i < 3; i++ {
		mustCheck(t, p, false)
	}
	if len(f.dev.Calls) != 0 {
		t.Errorf("unchanged file made device calls: %v", f.dev.Calls)
	}
}

func TestCheckReturnsTrueOncePerTouch(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)

	var results []bool
	for i := 0; i < 3; i++ {
		ok, err := p.Check()
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, ok)
	}
	f.write(goodFrag)
	for i := 0; i < 3; i++ {
		ok, err := p.Check()
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, ok)
	}

	want := []bool{true, false, false, true, false, false}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("results = %v, want %v", results, want)
	}
}

func TestCheckReloadSwapsStages(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)
	mustCheck(t, p, true)
	before := append([]uint32(nil), f.dev.Programs[p.Handle()].Attached...)

	f.write("#version 430\nvoid main(){gl_FragColor=vec4(0);}\n")
	mustCheck(t, p, true)

	prog := f.dev.Programs[p.Handle()]
	if !prog.Linked {
		t.Fatal("program not linked after reload")
	}
	for _, old := range before {
		for _, now := range prog.Attached {
			if old == now {
				t.Fatalf("shader %d still attached after reload", old)
			}
		}
		if !f.dev.Shaders[old].Deleted {
			t.Errorf("old shader %d not deleted", old)
		}
	}
	if f.dev.LiveShaders() != 2 {
		t.Errorf("%d live shaders, want 2", f.dev.LiveShaders())
	}
}

func TestCheckCompileErrorKeepsProgram(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)
	mustCheck(t, p, true)
	before := append([]uint32(nil), f.dev.Programs[p.Handle()].Attached...)
	links := f.dev.Programs[p.Handle()].Links

	f.write("#version 430\n" + graphicstest.CompileErrorMarker + "\n")
	ok, err := p.Check()
	if !ok {
		t.Fatal("failed reload should report an attempt")
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CompileError", err)
	}
	// The built-in vertex stage compiles; the fragment stage does not.
	if ce.Stage != graphics.FragmentStage {
		t.Errorf("failing stage = %v, want fragment", ce.Stage)
	}
	if ce.Path != f.path || !strings.Contains(ce.Log, graphicstest.CompileErrorMarker) {
		t.Errorf("unexpected diagnostic %+v", ce)
	}

	prog := f.dev.Programs[p.Handle()]
	if !reflect.DeepEqual(prog.Attached, before) {
		t.Errorf("attached = %v, want %v", prog.Attached, before)
	}
	if prog.Links != links {
		t.Error("live program was relinked")
	}
	if f.dev.LiveShaders() != 2 {
		t.Errorf("%d live shaders, staged vertex shader leaked", f.dev.LiveShaders())
	}

	// The broken edit is not retried until the file is touched again.
	mustCheck(t, p, false)

	f.write(goodFrag)
	mustCheck(t, p, true)
}

func TestCheckLinkErrorRestoresProgram(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeShared)
	mustCheck(t, p, true)
	before := append([]uint32(nil), f.dev.Programs[p.Handle()].Attached...)

	f.write("#version 430\n// " + graphicstest.LinkErrorMarker + "\n")
	ok, err := p.Check()
	if !ok {
		t.Fatal("failed reload should report an attempt")
	}
	var le *LinkError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LinkError", err)
	}

	prog := f.dev.Programs[p.Handle()]
	if !reflect.DeepEqual(prog.Attached, before) {
		t.Errorf("attached = %v, want %v", prog.Attached, before)
	}
	if !prog.Linked {
		t.Error("previous stages were not relinked")
	}
	for _, sh := range before {
		if f.dev.Shaders[sh].Deleted {
			t.Errorf("previous shader %d deleted", sh)
		}
	}
	if f.dev.LiveShaders() != 2 {
		t.Errorf("%d live shaders, want 2", f.dev.LiveShaders())
	}
}

func TestCheckLinkErrorOnFirstLoad(t *testing.T) {
	f := newFixture(t)
	f.write("#version 430\n// " + graphicstest.LinkErrorMarker + "\n")
	p := f.program(ModeFullscreen)

	_, err := p.Check()
	var le *LinkError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LinkError", err)
	}
	if n := len(f.dev.Programs[p.Handle()].Attached); n != 0 {
		t.Errorf("%d shaders left attached", n)
	}
	if f.dev.LiveShaders() != 0 {
		t.Errorf("%d staged shaders leaked", f.dev.LiveShaders())
	}
}

func TestCheckSharedMode(t *testing.T) {
	f := newFixture(t)
	f.write("#version 430\nBODY\n")
	p := f.program(ModeShared)
	mustCheck(t, p, true)

	prog := f.dev.Programs[p.Handle()]
	vs := f.dev.Shaders[prog.Attached[0]]
	if vs.Source != "#version 430\n#define _VS\nBODY\n" {
		t.Errorf("vertex source = %q", vs.Source)
	}
}

func TestCheckComputeMode(t *testing.T) {
	f := newFixture(t)
	src := "#version 430\nlayout(local_size_x=8, local_size_y=8) in;\nvoid main(){}\n"
	f.write(src)
	p := f.program(ModeCompute)
	mustCheck(t, p, true)

	prog := f.dev.Programs[p.Handle()]
	if len(prog.Attached) != 1 {
		t.Fatalf("attached %d shaders, want 1", len(prog.Attached))
	}
	cs := f.dev.Shaders[prog.Attached[0]]
	if cs.Kind != graphics.ComputeStage || cs.Source != src {
		t.Errorf("compute stage = %+v", cs)
	}

	old := prog.Attached[0]
	f.write(src + "// edit\n")
	mustCheck(t, p, true)
	if prog.Attached[0] == old || !f.dev.Shaders[old].Deleted {
		t.Error("compute stage not replaced")
	}
}

func TestOnSwapRunsAfterSuccessOnly(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)

	var swaps []uint32
	p.OnSwap(func(program uint32) { swaps = append(swaps, program) })

	mustCheck(t, p, true)
	f.write("#version 430\n" + graphicstest.CompileErrorMarker)
	p.Check()

	if len(swaps) != 1 || swaps[0] != p.Handle() {
		t.Errorf("swaps = %v", swaps)
	}
}

func TestOnSwapRunsAfterRollbackRelink(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeShared)

	swaps := 0
	p.OnSwap(func(uint32) { swaps++ })

	mustCheck(t, p, true)
	f.write("#version 430\n// " + graphicstest.LinkErrorMarker + "\n")
	if _, err := p.Check(); err == nil {
		t.Fatal("expected a link error")
	}
	if swaps != 2 {
		t.Errorf("swap hooks ran %d times, want 2", swaps)
	}
}

func TestOnSwapSkippedWhenNothingRelinked(t *testing.T) {
	f := newFixture(t)
	f.write("#version 430\n// " + graphicstest.LinkErrorMarker + "\n")
	p := f.program(ModeFullscreen)

	swaps := 0
	p.OnSwap(func(uint32) { swaps++ })
	if _, err := p.Check(); err == nil {
		t.Fatal("expected a link error")
	}
	if swaps != 0 {
		t.Errorf("swap hooks ran %d times on a program with no stages", swaps)
	}
}

type upperTranslator struct {
	fail bool
}

func (u upperTranslator) Translate(st shader.Stage) (shader.Stage, error) {
	if u.fail {
		return st, errors.New("translation failed")
	}
	st.Source = "// translated\n" + st.Source
	return st, nil
}

func TestTranslatorApplied(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)
	p.SetTranslator(upperTranslator{})
	mustCheck(t, p, true)

	for _, sh := range f.dev.Programs[p.Handle()].Attached {
		if !strings.HasPrefix(f.dev.Shaders[sh].Source, "// translated\n") {
			t.Errorf("shader %d not translated", sh)
		}
	}
}

func TestTranslatorErrorIsCompileError(t *testing.T) {
	f := newFixture(t)
	f.write(goodFrag)
	p := f.program(ModeFullscreen)
	p.SetTranslator(upperTranslator{fail: true})
	f.dev.ResetCalls()

	ok, err := p.Check()
	var ce *CompileError
	if !ok || !errors.As(err, &ce) {
		t.Fatalf("Check = %v, %v", ok, err)
	}
	if len(f.dev.Calls) != 0 {
		t.Errorf("translation failure reached the device: %v", f.dev.Calls)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeFullscreen, false},
		{"fullscreen", ModeFullscreen, false},
		{"shared", ModeShared, false},
		{"compute", ModeCompute, false},
		{"geometry", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
