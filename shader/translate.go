package shader

import (
	"context"
	"fmt"

	gst "github.com/richinsley/goshadertranslator"
	"github.com/richinsley/hotshader/graphics"
)

// Translator rewrites WebGL2 / GLSL ES stages into desktop GLSL 330 before
// they reach the driver. Compute stages pass through unchanged because the
// WebGL2 dialect has no compute stage.
type Translator struct {
	translator *gst.ShaderTranslator
	names      map[string]string
}

func NewTranslator(ctx context.Context) (*Translator, error) {
	t, err := gst.NewShaderTranslator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", err)
	}
	return &Translator{translator: t, names: make(map[string]string)}, nil
}

// MappedName returns the name the translator gave to a uniform declared in
// the source. Names it never saw are returned unchanged.
func (t *Translator) MappedName(name string) string {
	if mapped, ok := t.names[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

func (t *Translator) Translate(stage Stage) (Stage, error) {
	var kind string
	switch stage.Kind {
	case graphics.VertexStage:
		kind = "vertex"
	case graphics.FragmentStage:
		kind = "fragment"
	default:
		return stage, nil
	}
	out, err := t.translator.TranslateShader(stage.Source, kind, gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return stage, fmt.Errorf("%s shader translation failed: %w", kind, err)
	}
	for name, v := range out.Variables {
		t.names[name] = v.MappedName
	}
	return Stage{Kind: stage.Kind, Source: out.Code}, nil
}
