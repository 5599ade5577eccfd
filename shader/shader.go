package shader

import (
	"bytes"

	"github.com/richinsley/hotshader/graphics"
)

// ────────────────────────────── Built-in stages ──────────────────────────────

// fullscreenVertexBody draws a full-screen quad from gl_VertexID alone, so no
// vertex buffer is needed. Draw it as a 4 vertex triangle strip.
const fullscreenVertexBody = `
precision mediump float;
void main() {
    vec2 UV = vec2(gl_VertexID%2, gl_VertexID/2)*2.-1.;
    gl_Position = vec4(UV, 0, 1);
}
`

// Stage selectors prepended after the version line so a single file can
// carry both stages.
const (
	vertexDefine   = "#define _VS\n"
	fragmentDefine = "#define _FS\n"
)

// ────────────────────────────── Source files ─────────────────────────────────

// Source is a shader file split into its version line and the rest.
type Source struct {
	// Header is the first line including its newline, passed through
	// verbatim as the version directive.
	Header string
	Body   string
}

// Parse splits data at the first newline. A file without a newline is all
// header and has an empty body; its header gets a newline so the defines
// that follow start on their own line.
func Parse(data []byte) Source {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		if len(data) == 0 {
			return Source{}
		}
		return Source{Header: string(data) + "\n"}
	}
	return Source{Header: string(data[:i+1]), Body: string(data[i+1:])}
}

// Stage is the source text for one pipeline stage.
type Stage struct {
	Kind   graphics.StageKind
	Source string
}

// RenderStages returns the vertex and fragment stages for a render program.
// With builtinVertex the vertex stage is the full-screen generator, otherwise
// the file body is compiled for both stages with _VS or _FS defined.
func RenderStages(src Source, builtinVertex bool) []Stage {
	vsBody := src.Body
	if builtinVertex {
		vsBody = fullscreenVertexBody
	}
	return []Stage{
		{Kind: graphics.VertexStage, Source: src.Header + vertexDefine + vsBody},
		{Kind: graphics.FragmentStage, Source: src.Header + fragmentDefine + src.Body},
	}
}

// ComputeStages returns the single compute stage for data, compiled verbatim.
func ComputeStages(data []byte) []Stage {
	return []Stage{{Kind: graphics.ComputeStage, Source: string(data)}}
}

// FullscreenVertexCount is the number of vertices to draw as a triangle
// strip with the built-in vertex stage.
const FullscreenVertexCount = 4
