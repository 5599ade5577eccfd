package hotload

import (
	"log"

	"github.com/richinsley/hotshader/graphics"
	"github.com/richinsley/hotshader/shader"
)

// staging holds freshly compiled stage objects that are not attached to any
// program yet. It is either committed into a live program or discarded.
type staging struct {
	dev     graphics.ShaderDevice
	path    string
	shaders []uint32

	// relinked is set when a failed commit relinked the previous stages.
	relinked bool
}

// compile builds every stage. On the first failure all stages compiled so
// far are deleted and a *CompileError is returned.
func (s *staging) compile(stages []shader.Stage) error {
	for _, st := range stages {
		sh := s.dev.CreateShader(st.Kind)
		ok, infoLog := s.dev.CompileShader(sh, st.Source)
		if !ok {
			s.dev.DeleteShader(sh)
			s.discard()
			return &CompileError{Stage: st.Kind, Path: s.path, Log: infoLog}
		}
		s.shaders = append(s.shaders, sh)
	}
	return nil
}

func (s *staging) discard() {
	for _, sh := range s.shaders {
		s.dev.DeleteShader(sh)
	}
	s.shaders = nil
}

// commit swaps the staged objects into program and links it. If the link
// fails the previous objects are reattached and relinked, so the program
// ends up exactly as it was.
func (s *staging) commit(program uint32) error {
	old := s.dev.AttachedShaders(program)
	for _, sh := range old {
		s.dev.DetachShader(program, sh)
	}
	for _, sh := range s.shaders {
		s.dev.AttachShader(program, sh)
	}

	if ok, infoLog := s.dev.LinkProgram(program); !ok {
		for _, sh := range s.shaders {
			s.dev.DetachShader(program, sh)
		}
		s.discard()
		for _, sh := range old {
			s.dev.AttachShader(program, sh)
		}
		if len(old) > 0 {
			s.dev.LinkProgram(program)
			s.relinked = true
		}
		return &LinkError{Path: s.path, Log: infoLog}
	}

	for _, sh := range old {
		s.dev.DeleteShader(sh)
	}
	s.shaders = nil

	// Validation depends on the current pipeline state, so a failure here is
	// only worth a warning.
	if ok, infoLog := s.dev.ValidateProgram(program); !ok && infoLog != "" {
		log.Printf("WARNING: program for %s did not validate: %s", s.path, infoLog)
	}
	return nil
}
