// Package graphicstest provides an in-memory graphics device for tests.
package graphicstest

import (
	"fmt"
	"strings"

	"github.com/richinsley/hotshader/graphics"
)

// Markers that make the fake device fail when found in a shader source.
const (
	CompileErrorMarker = "FORCE_COMPILE_ERROR"
	LinkErrorMarker    = "FORCE_LINK_ERROR"
)

type Shader struct {
	Kind    graphics.StageKind
	Source  string
	Deleted bool
}

type Program struct {
	Attached  []uint32
	Linked    bool
	Validated bool
	Links     int
	Deleted   bool
}

type Texture struct {
	Width, Height int
	Pix           []byte
	Sampler       graphics.Sampler
	Deleted       bool
}

// Device implements graphics.ShaderDevice, graphics.TextureDevice and
// graphics.PixelReader. Every call is appended to Calls.
type Device struct {
	Shaders  map[uint32]*Shader
	Programs map[uint32]*Program
	Textures map[uint32]*Texture
	Calls    []string

	// ViewportWidth and ViewportHeight are reported by Viewport.
	ViewportWidth, ViewportHeight int
	// Fill is written to every byte returned by ReadPixelsRGB.
	Fill  byte
	Reads int

	next uint32
}

func NewDevice() *Device {
	return &Device{
		Shaders:        make(map[uint32]*Shader),
		Programs:       make(map[uint32]*Program),
		Textures:       make(map[uint32]*Texture),
		ViewportWidth:  4,
		ViewportHeight: 2,
	}
}

func (d *Device) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

// ResetCalls clears the call log.
func (d *Device) ResetCalls() {
	d.Calls = nil
}

// LiveShaders returns the number of shader objects not yet deleted.
func (d *Device) LiveShaders() int {
	n := 0
	for _, s := range d.Shaders {
		if !s.Deleted {
			n++
		}
	}
	return n
}

func (d *Device) CreateShader(kind graphics.StageKind) uint32 {
	id := d.id()
	d.Shaders[id] = &Shader{Kind: kind}
	d.record("CreateShader(%s) = %d", kind, id)
	return id
}

func (d *Device) CompileShader(shader uint32, source string) (bool, string) {
	d.record("CompileShader(%d)", shader)
	s := d.Shaders[shader]
	s.Source = source
	if strings.Contains(source, CompileErrorMarker) {
		return false, fmt.Sprintf("0:1: error: %s", CompileErrorMarker)
	}
	return true, ""
}

func (d *Device) DeleteShader(shader uint32) {
	d.record("DeleteShader(%d)", shader)
	if s, ok := d.Shaders[shader]; ok {
		s.Deleted = true
	}
}

func (d *Device) CreateProgram() uint32 {
	id := d.id()
	d.Programs[id] = &Program{}
	d.record("CreateProgram() = %d", id)
	return id
}

func (d *Device) DeleteProgram(program uint32) {
	d.record("DeleteProgram(%d)", program)
	if p, ok := d.Programs[program]; ok {
		p.Deleted = true
	}
}

func (d *Device) AttachedShaders(program uint32) []uint32 {
	d.record("AttachedShaders(%d)", program)
	p := d.Programs[program]
	return append([]uint32(nil), p.Attached...)
}

func (d *Device) AttachShader(program, shader uint32) {
	d.record("AttachShader(%d, %d)", program, shader)
	p := d.Programs[program]
	p.Attached = append(p.Attached, shader)
}

func (d *Device) DetachShader(program, shader uint32) {
	d.record("DetachShader(%d, %d)", program, shader)
	p := d.Programs[program]
	for i, s := range p.Attached {
		if s == shader {
			p.Attached = append(p.Attached[:i], p.Attached[i+1:]...)
			return
		}
	}
}

func (d *Device) LinkProgram(program uint32) (bool, string) {
	d.record("LinkProgram(%d)", program)
	p := d.Programs[program]
	p.Links++
	p.Linked = false
	p.Validated = false
	for _, s := range p.Attached {
		if strings.Contains(d.Shaders[s].Source, LinkErrorMarker) {
			return false, fmt.Sprintf("error: %s", LinkErrorMarker)
		}
	}
	p.Linked = len(p.Attached) > 0
	if !p.Linked {
		return false, "error: no shaders attached"
	}
	return true, ""
}

func (d *Device) ValidateProgram(program uint32) (bool, string) {
	d.record("ValidateProgram(%d)", program)
	p := d.Programs[program]
	p.Validated = p.Linked
	if !p.Validated {
		return false, "program not linked"
	}
	return true, ""
}

func (d *Device) CreateGrayTexture(width, height int, pix []byte, sampler graphics.Sampler) uint32 {
	id := d.id()
	d.Textures[id] = &Texture{
		Width:   width,
		Height:  height,
		Pix:     append([]byte(nil), pix...),
		Sampler: sampler,
	}
	d.record("CreateGrayTexture(%d, %d) = %d", width, height, id)
	return id
}

func (d *Device) DeleteTexture(texture uint32) {
	d.record("DeleteTexture(%d)", texture)
	if t, ok := d.Textures[texture]; ok {
		t.Deleted = true
	}
}

func (d *Device) Viewport() (int, int, int, int) {
	return 0, 0, d.ViewportWidth, d.ViewportHeight
}

func (d *Device) ReadPixelsRGB(x, y, width, height int, dst []byte) {
	d.Reads++
	for i := range dst[:width*height*3] {
		dst[i] = d.Fill
	}
}
