//go:build !darwin && !linux

package clip

// New returns a sampler over the native accessor only. Windows has no stock
// paste utility that emits image bytes.
func New(opts ...SamplerOption) *Sampler {
	return NewSampler([]Strategy{NativeText()}, []Strategy{NativeImage()}, opts...)
}

func imageCopyCommands(_ string) []copyCommand { return nil }
