package gldevice

import (
	"github.com/go-gl/gl/v4.3-core/gl"
)

func (d *Device) Viewport() (x, y, width, height int) {
	var vp [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	return int(vp[0]), int(vp[1]), int(vp[2]), int(vp[3])
}

// ReadPixelsRGB reads the bound read framebuffer bottom-up into dst.
func (d *Device) ReadPixelsRGB(x, y, width, height int, dst []byte) {
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
}
