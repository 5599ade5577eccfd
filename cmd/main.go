package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/hotshader/glfwcontext"
	"github.com/richinsley/hotshader/options"
	renderer "github.com/richinsley/hotshader/renderer"
	"github.com/xyproto/env/v2"
)

func runHotShader(opts *options.Options) error {
	if err := glfwcontext.InitGraphics(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	defer glfwcontext.TerminateGraphics()

	ctx, err := glfwcontext.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer ctx.Shutdown()

	r, err := renderer.NewRenderer(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Shutdown()

	ctx.RegisterKeyCallback(glfw.KeyR, r.StartRecording)
	ctx.RegisterKeyCallback(glfw.KeyF5, r.ForceReload)

	log.Println("Starting render loop...")
	return r.Run()
}

func init() {
	runtime.LockOSThread()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	opts := &options.Options{
		FragmentPath: flag.String("frag", "shader.glsl", "Shader file reloaded into the image program"),
		Mode:         flag.String("mode", "fullscreen", "How the shader file is compiled: fullscreen or shared"),
		ComputePath:  flag.String("compute", "", "Optional compute shader file, its output is bound to iChannel1"),
		PluginPath:   flag.String("plugin", env.Str("HOTSHADER_PLUGIN", ""), "Optional animation plugin library (HOTSHADER_PLUGIN)"),
		TexturePath:  flag.String("texture", "", "Optional image loaded as a single-channel texture on iChannel0"),
		Width:        flag.Int("width", 1280, "Width of the window"),
		Height:       flag.Int("height", 720, "Height of the window"),
		Record:       flag.Bool("record", false, "Start recording immediately (press R to record later)"),
		FFMPEGPath:   flag.String("ffmpeg", env.Str("HOTSHADER_FFMPEG", ""), "Path to ffmpeg executable (HOTSHADER_FFMPEG)"),
		OutputFile:   flag.String("output", "1.mp4", "Output file name for recording"),
		Translate:    flag.Bool("translate", false, "Translate WebGL2 shaders to GLSL 330 before compiling"),
		Notify:       flag.Bool("notify", env.Bool("HOTSHADER_NOTIFY"), "Use filesystem notifications instead of polling every frame (HOTSHADER_NOTIFY)"),
		Help:         flag.Bool("help", false, "Show help message"),
	}
	flag.Parse()

	if *opts.Help {
		fmt.Println("Hot-reloading shader viewer")
		flag.PrintDefaults()
		return
	}

	if *opts.Width <= 0 || *opts.Height <= 0 {
		fmt.Fprintf(os.Stderr, "invalid size %dx%d\n", *opts.Width, *opts.Height)
		os.Exit(2)
	}
	if *opts.FragmentPath == "" {
		fmt.Fprintln(os.Stderr, "-frag is required")
		os.Exit(2)
	}

	if err := runHotShader(opts); err != nil {
		log.Fatalf("hotshader: %v", err)
	}
}
