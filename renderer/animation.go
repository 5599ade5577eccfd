package renderer

import (
	"errors"
	"log"

	"github.com/chewxy/math32"
	"github.com/richinsley/hotshader/plugin"
)

// AnimationFunc is the signature of the plugin entry point. It maps the
// elapsed time in seconds to the value bound to the iAnim uniform.
type AnimationFunc func(t float32) float32

// DefaultAnimation is used while no plugin entry is available.
func DefaultAnimation(t float32) float32 {
	return 0.5 + 0.5*math32.Sin(t)
}

// animationSource is the part of plugin.Loader the host needs.
type animationSource interface {
	Load() (AnimationFunc, error)
	Current() (AnimationFunc, bool)
}

// resolveAnimation returns the entry to call this frame. A library that loads
// but lacks the entry symbol is fatal. Any other failure keeps animating with
// the last good entry, or DefaultAnimation if there never was one, and the
// load is retried on the next frame.
func resolveAnimation(src animationSource) (AnimationFunc, error) {
	if src == nil {
		return DefaultAnimation, nil
	}
	entry, err := src.Load()
	if err != nil {
		if errors.Is(err, plugin.ErrSymbolNotFound) {
			return nil, err
		}
		log.Printf("ERROR: %v", err)
		if prev, ok := src.Current(); ok && prev != nil {
			return prev, nil
		}
		return DefaultAnimation, nil
	}
	if entry == nil {
		return DefaultAnimation, nil
	}
	return entry, nil
}
