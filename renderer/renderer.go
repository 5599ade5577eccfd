package renderer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/hotshader/encoder"
	"github.com/richinsley/hotshader/gldevice"
	"github.com/richinsley/hotshader/graphics"
	"github.com/richinsley/hotshader/hotload"
	inputs "github.com/richinsley/hotshader/inputs"
	"github.com/richinsley/hotshader/options"
	"github.com/richinsley/hotshader/plugin"
	shader "github.com/richinsley/hotshader/shader"
	"github.com/richinsley/hotshader/watch"
)

var glInitOnce sync.Once

// Renderer draws one hot-reloaded image program over the whole framebuffer,
// optionally fed by a compute pass, a texture and an animation plugin.
type Renderer struct {
	context  graphics.Context
	dev      *gldevice.Device
	options  *options.Options
	quadVAO  uint32
	image    *hotload.Program
	uniforms *UniformCache
	ready    bool
	compute  *computePass
	texture  uint32
	plugin   *plugin.Loader[AnimationFunc]
	notifier *watch.Notifier
	recorder *encoder.Recorder
}

func NewRenderer(ctx graphics.Context, opts *options.Options) (*Renderer, error) {
	r := &Renderer{
		context: ctx,
		dev:     gldevice.New(),
		options: opts,
	}

	r.context.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	log.Printf("OpenGL version %s", gl.GoStr(gl.GetString(gl.VERSION)))

	mode, err := hotload.ParseMode(*opts.Mode)
	if err != nil {
		return nil, err
	}
	if mode == hotload.ModeCompute {
		return nil, fmt.Errorf("mode %q is only valid for the compute pass", mode)
	}

	// The full-screen vertex stage builds its corners from gl_VertexID, so an
	// empty vertex array is enough.
	gl.GenVertexArrays(1, &r.quadVAO)

	r.image = hotload.New(r.dev, r.dev.CreateProgram(), *opts.FragmentPath, mode)
	r.uniforms = NewUniformCache(r.image.Handle())
	r.image.OnSwap(func(uint32) {
		r.uniforms.Clear()
		r.ready = true
	})

	if *opts.ComputePath != "" {
		program := hotload.New(r.dev, r.dev.CreateProgram(), *opts.ComputePath, hotload.ModeCompute)
		r.compute = newComputePass(program)
	}

	if *opts.Translate {
		t, err := shader.NewTranslator(context.Background())
		if err != nil {
			r.Shutdown()
			return nil, err
		}
		r.image.SetTranslator(t)
		r.uniforms.SetNameMapper(t.MappedName)
	}

	if *opts.PluginPath != "" {
		r.plugin = plugin.NewLoader[AnimationFunc](*opts.PluginPath)
	}

	if *opts.Notify {
		if err := r.watchFiles(); err != nil {
			r.Shutdown()
			return nil, err
		}
	}

	if *opts.TexturePath != "" {
		// A missing texture is logged and leaves iChannel0 unbound.
		r.texture, _ = inputs.LoadGrayTexture(r.dev, *opts.TexturePath, inputs.DefaultSampler)
	}

	if *opts.Record {
		r.StartRecording()
	}
	return r, nil
}

// watchFiles switches every watched file to fsnotify hints, so files are
// only stat'ed after activity in their directory.
func (r *Renderer) watchFiles() error {
	n, err := watch.NewNotifier()
	if err != nil {
		return err
	}
	r.notifier = n

	files := []*watch.File{r.image.File()}
	if r.compute != nil {
		files = append(files, r.compute.program.File())
	}
	if r.plugin != nil {
		files = append(files, r.plugin.File())
	}
	for _, f := range files {
		if err := n.Add(f.Path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", f.Path, err)
		}
		f.Hint = n
	}
	return nil
}

// StartRecording begins a new recording of the next frames. It is ignored
// while a recording is in progress.
func (r *Renderer) StartRecording() {
	if r.recorder != nil && !r.recorder.Done() {
		log.Printf("already recording %d frames in", r.recorder.Frames())
		return
	}
	config := encoder.DefaultConfig()
	config.FFmpegPath = *r.options.FFMPEGPath
	if *r.options.OutputFile != "" {
		config.OutputFile = *r.options.OutputFile
	}
	r.recorder = encoder.NewRecorder(r.dev, config)
}

// ForceReload makes every watched file count as changed on the next frame.
func (r *Renderer) ForceReload() {
	r.image.File().Reset()
	if r.compute != nil {
		r.compute.program.File().Reset()
	}
	if r.plugin != nil {
		r.plugin.File().Reset()
	}
}

func (r *Renderer) Shutdown() {
	if r.recorder != nil {
		if err := r.recorder.Close(); err != nil {
			log.Printf("recording ended with error: %v", err)
		}
	}
	if r.plugin != nil {
		if err := r.plugin.Close(); err != nil {
			log.Printf("failed to unload plugin: %v", err)
		}
	}
	if r.notifier != nil {
		r.notifier.Close()
	}
	if r.compute != nil {
		r.compute.destroy()
		r.dev.DeleteProgram(r.compute.program.Handle())
	}
	if r.texture != 0 {
		r.dev.DeleteTexture(r.texture)
	}
	r.dev.DeleteProgram(r.image.Handle())
	gl.DeleteVertexArrays(1, &r.quadVAO)
}

// RenderFrame reloads whatever changed, then draws one frame into the
// default framebuffer. Only a plugin without its entry symbol is an error.
func (r *Renderer) RenderFrame(time float64, frameCount int32, mouseData [4]float32) error {
	animate, err := resolveAnimation(r.animationSource())
	if err != nil {
		return err
	}
	t := float32(time)
	anim := animate(t)

	width, height := r.context.GetFramebufferSize()
	if r.compute != nil {
		r.compute.dispatch(width, height, t, anim, frameCount)
	}

	r.image.Check()

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if !r.ready {
		return nil
	}

	gl.UseProgram(r.image.Handle())
	r.uniforms.SetVec3("iResolution", mgl32.Vec3{float32(width), float32(height), 1})
	r.uniforms.SetFloat("iTime", t)
	r.uniforms.SetInt("iFrame", frameCount)
	r.uniforms.SetVec4("iMouse", mgl32.Vec4(mouseData))
	r.uniforms.SetFloat("iAnim", anim)
	r.bindChannels()

	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, shader.FullscreenVertexCount)
	gl.BindVertexArray(0)
	r.unbindChannels()
	return nil
}

func (r *Renderer) animationSource() animationSource {
	if r.plugin == nil {
		return nil
	}
	return r.plugin
}

func (r *Renderer) bindChannels() {
	if r.texture != 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.texture)
		r.uniforms.SetInt("iChannel0", 0)
	}
	if r.compute != nil && r.compute.texture != 0 {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, r.compute.texture)
		r.uniforms.SetInt("iChannel1", 1)
	}
}

func (r *Renderer) unbindChannels() {
	for i := uint32(0); i < 2; i++ {
		gl.ActiveTexture(gl.TEXTURE0 + i)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

// capture hands the finished frame to an active recording.
func (r *Renderer) capture() {
	if r.recorder == nil || r.recorder.Done() {
		return
	}
	more, err := r.recorder.Capture()
	if err != nil {
		log.Printf("ERROR: recording failed: %v", err)
	}
	if !more {
		log.Printf("recording done")
		r.recorder = nil
	}
}

func (r *Renderer) Run() error {
	startTime := r.context.Time()
	var frameCount int32 = 0

	for !r.context.ShouldClose() {
		currentTime := r.context.Time() - startTime
		if err := r.RenderFrame(currentTime, frameCount, r.context.GetMouseInput()); err != nil {
			return err
		}
		r.capture()
		r.context.EndFrame()
		frameCount++
	}
	return nil
}
