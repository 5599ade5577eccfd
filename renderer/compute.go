package renderer

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/hotshader/hotload"
)

// Compute shaders are dispatched in 8x8 work groups and must declare
// layout(local_size_x = 8, local_size_y = 8) in.
const computeGroupSize = 8

// computePass runs a hot-reloaded compute program that writes an RGBA8 image
// at binding 0. The image is sampled by the image pass as iChannel1.
type computePass struct {
	program  *hotload.Program
	uniforms *UniformCache
	ready    bool

	texture uint32
	width   int
	height  int
}

func newComputePass(program *hotload.Program) *computePass {
	c := &computePass{
		program:  program,
		uniforms: NewUniformCache(program.Handle()),
	}
	program.OnSwap(func(uint32) {
		c.uniforms.Clear()
		c.ready = true
	})
	return c
}

// groups returns the work group counts covering width x height pixels.
func groups(width, height int) (uint32, uint32) {
	gx := (width + computeGroupSize - 1) / computeGroupSize
	gy := (height + computeGroupSize - 1) / computeGroupSize
	return uint32(gx), uint32(gy)
}

// resize recreates the storage image when the framebuffer size changed.
// TexStorage2D allocations are immutable, so a resize needs a new texture.
func (c *computePass) resize(width, height int) {
	if c.texture != 0 && width == c.width && height == c.height {
		return
	}
	if c.texture != 0 {
		gl.DeleteTextures(1, &c.texture)
	}
	gl.GenTextures(1, &c.texture)
	gl.BindTexture(gl.TEXTURE_2D, c.texture)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.RGBA8, int32(width), int32(height))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	c.width = width
	c.height = height
}

func (c *computePass) dispatch(width, height int, t, anim float32, frame int32) {
	c.program.Check()
	if !c.ready || width <= 0 || height <= 0 {
		return
	}
	c.resize(width, height)

	gl.UseProgram(c.program.Handle())
	c.uniforms.SetVec3("iResolution", mgl32.Vec3{float32(width), float32(height), 1})
	c.uniforms.SetFloat("iTime", t)
	c.uniforms.SetInt("iFrame", frame)
	c.uniforms.SetFloat("iAnim", anim)

	gl.BindImageTexture(0, c.texture, 0, false, 0, gl.WRITE_ONLY, gl.RGBA8)
	gx, gy := groups(width, height)
	gl.DispatchCompute(gx, gy, 1)
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT)
}

func (c *computePass) destroy() {
	if c.texture != 0 {
		gl.DeleteTextures(1, &c.texture)
		c.texture = 0
	}
}
