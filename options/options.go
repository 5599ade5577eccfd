package options

type Options struct {
	FragmentPath *string // shader file reloaded into the image program
	Mode         *string // "fullscreen" or "shared"
	ComputePath  *string // optional compute shader file
	PluginPath   *string // optional animation plugin library
	TexturePath  *string // optional single-channel texture bound to iChannel0
	Width        *int
	Height       *int
	Record       *bool   // start recording immediately
	FFMPEGPath   *string // empty uses ffmpeg from PATH
	OutputFile   *string
	Translate    *bool   // run stages through the WebGL2 -> GLSL 330 translator
	Notify       *bool   // only stat files after fsnotify reported activity
	Help         *bool
}
