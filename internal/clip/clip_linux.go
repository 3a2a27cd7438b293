//go:build linux

package clip

import "os"

// New returns the Linux sampler: the native accessor, then wl-paste (Wayland)
// or xclip (X11) asked for PNG, then the same utilities asked for TIFF.
func New(opts ...SamplerOption) *Sampler {
	wayland := os.Getenv("WAYLAND_DISPLAY") != "" && has("wl-paste")
	xclip := has("xclip")

	text := []Strategy{NativeText()}
	image := []Strategy{NativeImage()}
	if wayland {
		text = append(text, TextCommand("wl-paste", "--no-newline"))
	}
	if xclip {
		text = append(text, TextCommand("xclip", "-selection", "clipboard", "-o"))
	}
	for _, f := range []Format{FormatPNG, FormatTIFF} {
		mime := "image/" + string(f)
		if wayland {
			image = append(image, ImageCommand(f, "wl-paste", "--type", mime))
		}
		if xclip {
			image = append(image, ImageCommand(f, "xclip", "-selection", "clipboard", "-t", mime, "-o"))
		}
	}
	return NewSampler(text, image, opts...)
}

func imageCopyCommands(_ string) []copyCommand {
	var cmds []copyCommand
	if os.Getenv("WAYLAND_DISPLAY") != "" && has("wl-copy") {
		cmds = append(cmds, copyCommand{name: "wl-copy", args: []string{"--type", "image/png"}, stdin: true})
	}
	if has("xclip") {
		cmds = append(cmds, copyCommand{name: "xclip", args: []string{"-selection", "clipboard", "-t", "image/png", "-i"}, stdin: true})
	}
	return cmds
}
