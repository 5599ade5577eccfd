package hotload

import (
	"fmt"

	"github.com/richinsley/hotshader/graphics"
)

// CompileError reports a stage that failed to compile. The live program was
// left untouched.
type CompileError struct {
	Stage graphics.StageKind
	Path  string
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("fail to compile %s shader. file %s\n%s", e.Stage, e.Path, e.Log)
}

// LinkError reports a program that failed to link with the new stages. The
// previous stages were put back.
type LinkError struct {
	Path string
	Log  string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("fail to link program. file %s\n%s", e.Path, e.Log)
}
