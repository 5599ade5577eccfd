package graphics

// StageKind identifies a programmable pipeline stage.
type StageKind int

const (
	VertexStage StageKind = iota
	FragmentStage
	ComputeStage
)

func (k StageKind) String() string {
	switch k {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	case ComputeStage:
		return "compute"
	default:
		return "unknown"
	}
}

// ShaderDevice is the subset of the GPU API the reloader drives.
// All calls must happen on the thread that owns the context.
type ShaderDevice interface {
	CreateShader(kind StageKind) uint32
	// CompileShader uploads source and compiles it, returning the compile
	// status and the info log.
	CompileShader(shader uint32, source string) (bool, string)
	DeleteShader(shader uint32)

	CreateProgram() uint32
	DeleteProgram(program uint32)
	AttachedShaders(program uint32) []uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32) (bool, string)
	ValidateProgram(program uint32) (bool, string)
}

// Sampler holds the wrap and filter modes of a texture.
type Sampler struct {
	Wrap   string // "repeat" or "clamp"
	Filter string // "nearest", "linear" or "mipmap"
}

// TextureDevice creates textures from CPU pixel data.
type TextureDevice interface {
	// CreateGrayTexture creates a single-channel 8-bit texture of the given
	// size. pix holds width*height bytes, tightly packed rows.
	CreateGrayTexture(width, height int, pix []byte, sampler Sampler) uint32
	DeleteTexture(texture uint32)
}

// PixelReader reads back the current framebuffer.
type PixelReader interface {
	Viewport() (x, y, width, height int)
	// ReadPixelsRGB fills dst with width*height tightly packed RGB24 pixels.
	ReadPixelsRGB(x, y, width, height int, dst []byte)
}
