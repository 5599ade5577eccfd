// Package hotload recompiles shader programs when their source file changes.
//
// A reload is a two-phase commit: every stage is compiled into a detached
// staging set first, and only when all of them compile are they swapped into
// the live program. A broken edit never leaves the live program half updated,
// and the program handle keeps its identity across reloads.
package hotload

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/richinsley/hotshader/graphics"
	"github.com/richinsley/hotshader/shader"
	"github.com/richinsley/hotshader/watch"
)

// Mode selects how a shader file is turned into stages.
type Mode int

const (
	// ModeFullscreen pairs the file's fragment stage with the built-in
	// full-screen vertex generator.
	ModeFullscreen Mode = iota
	// ModeShared compiles the same file as both vertex and fragment stage.
	ModeShared
	// ModeCompute compiles the whole file as a single compute stage.
	ModeCompute
)

func (m Mode) String() string {
	switch m {
	case ModeFullscreen:
		return "fullscreen"
	case ModeShared:
		return "shared"
	case ModeCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name as accepted on the command line.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fullscreen", "":
		return ModeFullscreen, nil
	case "shared":
		return ModeShared, nil
	case "compute":
		return ModeCompute, nil
	default:
		return 0, fmt.Errorf("unknown shader mode %q", s)
	}
}

// Translator rewrites a stage before compilation.
type Translator interface {
	Translate(stage shader.Stage) (shader.Stage, error)
}

// Program keeps one live program in sync with one shader file.
type Program struct {
	dev        graphics.ShaderDevice
	handle     uint32
	file       *watch.File
	mode       Mode
	translator Translator
	onSwap     []func(program uint32)
}

// New watches path and reloads it into program. The program handle is owned
// by the caller.
func New(dev graphics.ShaderDevice, program uint32, path string, mode Mode) *Program {
	return &Program{
		dev:    dev,
		handle: program,
		file:   watch.New(path),
		mode:   mode,
	}
}

func (p *Program) Handle() uint32 {
	return p.handle
}

func (p *Program) Mode() Mode {
	return p.mode
}

// File returns the watched file record.
func (p *Program) File() *watch.File {
	return p.file
}

// SetTranslator installs a translator applied to every stage. Nil disables it.
func (p *Program) SetTranslator(t Translator) {
	p.translator = t
}

// OnSwap registers fn to run after the program was relinked, either with new
// stages or with the previous ones after a failed link. Uniform locations are
// invalidated by a relink, so caches hook in here.
func (p *Program) OnSwap(fn func(program uint32)) {
	p.onSwap = append(p.onSwap, fn)
}

// Check reloads the program if the file changed since the last check.
//
// It returns false when the file is missing or unchanged, without touching
// the device. It returns true when a reload was attempted; the error is then
// a *CompileError or *LinkError if the new source was rejected, in which case
// the live program is exactly as it was before the call.
func (p *Program) Check() (bool, error) {
	start := time.Now()
	mt, stale := p.file.Stale()
	if !stale {
		return false, nil
	}

	data, err := os.ReadFile(p.file.Path)
	if err != nil {
		log.Printf("ERROR: fail to read shader file %s: %v", p.file.Path, err)
		return false, nil
	}
	p.file.Commit(mt)

	stages, err := p.stages(data)
	if err != nil {
		log.Printf("ERROR: %v", err)
		return true, err
	}

	st := &staging{dev: p.dev, path: p.file.Path}
	if err := st.compile(stages); err != nil {
		log.Printf("ERROR: %v", err)
		return true, err
	}
	if err := st.commit(p.handle); err != nil {
		log.Printf("ERROR: %v", err)
		if st.relinked {
			p.swapped()
		}
		return true, err
	}

	p.swapped()
	log.Printf("INFO: loaded file %s. It took %d ms", p.file.Path, time.Since(start).Milliseconds())
	return true, nil
}

func (p *Program) swapped() {
	for _, fn := range p.onSwap {
		fn(p.handle)
	}
}

func (p *Program) stages(data []byte) ([]shader.Stage, error) {
	var stages []shader.Stage
	switch p.mode {
	case ModeCompute:
		stages = shader.ComputeStages(data)
	case ModeShared:
		stages = shader.RenderStages(shader.Parse(data), false)
	default:
		stages = shader.RenderStages(shader.Parse(data), true)
	}
	if p.translator == nil {
		return stages, nil
	}
	for i, st := range stages {
		out, err := p.translator.Translate(st)
		if err != nil {
			return nil, &CompileError{Stage: st.Kind, Path: p.file.Path, Log: err.Error()}
		}
		stages[i] = out
	}
	return stages, nil
}
