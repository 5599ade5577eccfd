package renderer

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// UniformCache caches uniform locations of one program. A relink invalidates
// every location, so the cache is cleared whenever the program is swapped.
type UniformCache struct {
	locations map[string]int32
	program   uint32
	lookup    func(program uint32, name string) int32
	mapName   func(name string) string
}

func NewUniformCache(program uint32) *UniformCache {
	return &UniformCache{
		locations: make(map[string]int32),
		program:   program,
		lookup:    glUniformLocation,
	}
}

func glUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// SetNameMapper installs a function translating source names into the names
// the driver sees. Nil disables mapping.
func (uc *UniformCache) SetNameMapper(fn func(name string) string) {
	uc.mapName = fn
	uc.Clear()
}

// Location returns the cached uniform location or fetches and caches it.
func (uc *UniformCache) Location(name string) int32 {
	if loc, ok := uc.locations[name]; ok {
		return loc
	}
	glName := name
	if uc.mapName != nil {
		glName = uc.mapName(name)
	}
	loc := uc.lookup(uc.program, glName)
	uc.locations[name] = loc
	return loc
}

func (uc *UniformCache) SetFloat(name string, value float32) {
	if loc := uc.Location(name); loc != -1 {
		gl.Uniform1f(loc, value)
	}
}

func (uc *UniformCache) SetInt(name string, value int32) {
	if loc := uc.Location(name); loc != -1 {
		gl.Uniform1i(loc, value)
	}
}

func (uc *UniformCache) SetVec3(name string, v mgl32.Vec3) {
	if loc := uc.Location(name); loc != -1 {
		gl.Uniform3f(loc, v[0], v[1], v[2])
	}
}

func (uc *UniformCache) SetVec4(name string, v mgl32.Vec4) {
	if loc := uc.Location(name); loc != -1 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

// Clear drops every cached location.
func (uc *UniformCache) Clear() {
	uc.locations = make(map[string]int32)
}
