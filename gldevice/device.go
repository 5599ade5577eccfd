// Package gldevice implements the graphics device interfaces on top of OpenGL 4.3.
package gldevice

import (
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/richinsley/hotshader/graphics"
)

// Device issues OpenGL calls on the current context. gl.Init must have been
// called before any method is used.
type Device struct{}

func New() *Device {
	return &Device{}
}

func glStage(kind graphics.StageKind) uint32 {
	switch kind {
	case graphics.VertexStage:
		return gl.VERTEX_SHADER
	case graphics.ComputeStage:
		return gl.COMPUTE_SHADER
	default:
		return gl.FRAGMENT_SHADER
	}
}

func (d *Device) CreateShader(kind graphics.StageKind) uint32 {
	return gl.CreateShader(glStage(kind))
}

func (d *Device) CompileShader(shader uint32, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		return false, trimLog(logText)
	}
	return true, ""
}

func (d *Device) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (d *Device) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (d *Device) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (d *Device) AttachedShaders(program uint32) []uint32 {
	var n int32
	gl.GetProgramiv(program, gl.ATTACHED_SHADERS, &n)
	if n == 0 {
		return nil
	}
	shaders := make([]uint32, n)
	var count int32
	gl.GetAttachedShaders(program, n, &count, &shaders[0])
	return shaders[:count]
}

func (d *Device) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (d *Device) DetachShader(program, shader uint32) {
	gl.DetachShader(program, shader)
}

func (d *Device) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)
	return programStatus(program, gl.LINK_STATUS)
}

func (d *Device) ValidateProgram(program uint32) (bool, string) {
	gl.ValidateProgram(program)
	return programStatus(program, gl.VALIDATE_STATUS)
}

func programStatus(program, pname uint32) (bool, string) {
	var status int32
	gl.GetProgramiv(program, pname, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		return false, trimLog(logText)
	}
	return true, ""
}

func trimLog(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
