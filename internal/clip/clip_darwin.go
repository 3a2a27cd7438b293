//go:build darwin

package clip

import "fmt"

// New returns the macOS sampler: the native accessor, then pbpaste asked for
// PNG, then pbpaste asked for TIFF.
func New(opts ...SamplerOption) *Sampler {
	text := []Strategy{NativeText()}
	image := []Strategy{NativeImage()}
	if has("pbpaste") {
		text = append(text, TextCommand("pbpaste"))
		image = append(image,
			ImageCommand(FormatPNG, "pbpaste", "-Prefer", "public.png"),
			ImageCommand(FormatTIFF, "pbpaste", "-Prefer", "public.tiff"),
		)
	}
	return NewSampler(text, image, opts...)
}

func imageCopyCommands(path string) []copyCommand {
	if path == "" || !has("osascript") {
		return nil
	}
	script := fmt.Sprintf(`set the clipboard to (read (POSIX file %q) as «class PNGf»)`, path)
	return []copyCommand{{name: "osascript", args: []string{"-e", script}}}
}
