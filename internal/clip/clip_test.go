package clip

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

type fakeStrategy struct {
	name    string
	payload *Payload
	err     error
	panics  bool
	block   bool
	calls   int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Extract(ctx context.Context) (*Payload, error) {
	f.calls++
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.payload, f.err
}

// imageBytes returns n bytes that start with a valid PNG header.
func imageBytes(n int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	b := buf.Bytes()
	if len(b) >= n {
		return b[:n]
	}
	return append(b, make([]byte, n-len(b))...)
}

func TestSamplerTextFirst(t *testing.T) {
	text := &fakeStrategy{name: "text", payload: &Payload{Kind: KindText, Text: "hello"}}
	img := &fakeStrategy{name: "img", payload: &Payload{Kind: KindImage, Data: imageBytes(200)}}
	s := NewSampler([]Strategy{text}, []Strategy{img})

	p := s.Sample(context.Background())
	require.NotNil(t, p)
	assert.Equal(t, KindText, p.Kind)
	assert.Equal(t, "hello", p.Text)
	assert.Equal(t, 0, img.calls)
}

func TestSamplerBlankTextFallsThroughToImage(t *testing.T) {
	text := &fakeStrategy{name: "text", payload: &Payload{Kind: KindText, Text: " \n\t"}}
	img := &fakeStrategy{name: "img", payload: &Payload{Kind: KindImage, Data: imageBytes(200)}}
	s := NewSampler([]Strategy{text}, []Strategy{img})

	p := s.Sample(context.Background())
	require.NotNil(t, p)
	assert.Equal(t, KindImage, p.Kind)
}

func TestSamplerImageChainOrder(t *testing.T) {
	failing := &fakeStrategy{name: "native", err: errors.New("no image")}
	empty := &fakeStrategy{name: "png-cmd"}
	tiffCmd := &fakeStrategy{name: "tiff-cmd", payload: &Payload{Kind: KindImage, Data: imageBytes(150)}}
	never := &fakeStrategy{name: "never", payload: &Payload{Kind: KindImage, Data: imageBytes(150)}}
	s := NewSampler(nil, []Strategy{failing, empty, tiffCmd, never})

	p := s.Image(context.Background())
	require.NotNil(t, p)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 1, tiffCmd.calls)
	assert.Equal(t, 0, never.calls)
}

func TestSamplerRejectsSmallImage(t *testing.T) {
	small := &fakeStrategy{name: "small", payload: &Payload{Kind: KindImage, Data: imageBytes(50)}}
	s := NewSampler([]Strategy{&fakeStrategy{name: "text"}}, []Strategy{small})

	assert.Nil(t, s.Sample(context.Background()))
	assert.Equal(t, 1, small.calls)
}

func TestSamplerMinimumSizeBoundary(t *testing.T) {
	s := NewSampler(nil, []Strategy{&fakeStrategy{name: "x", payload: &Payload{Kind: KindImage, Data: imageBytes(MinImageSize)}}})
	assert.NotNil(t, s.Image(context.Background()))

	s = NewSampler(nil, []Strategy{&fakeStrategy{name: "x", payload: &Payload{Kind: KindImage, Data: imageBytes(MinImageSize - 1)}}})
	assert.Nil(t, s.Image(context.Background()))
}

func TestSamplerRecoversFromPanic(t *testing.T) {
	bad := &fakeStrategy{name: "bad", panics: true}
	good := &fakeStrategy{name: "good", payload: &Payload{Kind: KindText, Text: "ok"}}
	s := NewSampler([]Strategy{bad, good}, nil)

	p := s.Text(context.Background())
	require.NotNil(t, p)
	assert.Equal(t, "ok", p.Text)
}

func TestSamplerTimesOutHungStrategy(t *testing.T) {
	hung := &fakeStrategy{name: "hung", block: true}
	s := NewSampler(nil, []Strategy{hung}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	assert.Nil(t, s.Image(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSamplerStopsOnCancelledContext(t *testing.T) {
	st := &fakeStrategy{name: "x", payload: &Payload{Kind: KindText, Text: "hi"}}
	s := NewSampler([]Strategy{st}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, s.Text(ctx))
	assert.Equal(t, 0, st.calls)
}

func TestSamplerStrategies(t *testing.T) {
	s := NewSampler([]Strategy{NativeText()}, []Strategy{NativeImage(), ImageCommand(FormatTIFF, "pbpaste")})
	assert.Equal(t, []string{"native-text", "native-image", "pbpaste-tiff"}, s.Strategies())
}

func TestTIFFToPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))

	out, err := TIFFToPNG(buf.Bytes())
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	_, err = TIFFToPNG([]byte("not a tiff"))
	assert.Error(t, err)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestTextCommand(t *testing.T) {
	requireShell(t)
	p, err := TextCommand("sh", "-c", "printf 'from shell'").Extract(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "from shell", p.Text)
}

func TestImageCommandBelowMinimum(t *testing.T) {
	requireShell(t)
	p, err := ImageCommand(FormatPNG, "sh", "-c", "printf 'tiny'").Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestImageCommandRejectsText(t *testing.T) {
	requireShell(t)
	text := strings.Repeat("not an image\r\n", 10)
	p, err := ImageCommand(FormatPNG, "sh", "-c", "printf '"+text+"'").Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = ImageCommand(FormatPNG, "sh", "-c", "cat").Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSamplerRejectsNonPNGImage(t *testing.T) {
	text := &fakeStrategy{name: "text-as-image", payload: &Payload{Kind: KindImage, Data: bytes.Repeat([]byte("text\r\n"), 40)}}
	good := &fakeStrategy{name: "png", payload: &Payload{Kind: KindImage, Data: imageBytes(150)}}
	s := NewSampler(nil, []Strategy{text, good})

	p := s.Image(context.Background())
	require.NotNil(t, p)
	assert.Equal(t, 1, good.calls)
	assert.True(t, IsPNG(p.Data))
}

func TestImageCommandFailureIsError(t *testing.T) {
	requireShell(t)
	_, err := ImageCommand(FormatPNG, "sh", "-c", "exit 1").Extract(context.Background())
	assert.Error(t, err)
}

func TestImageCommandKilledOnTimeout(t *testing.T) {
	requireShell(t)
	s := NewSampler(nil, []Strategy{ImageCommand(FormatPNG, "sh", "-c", "sleep 5")}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	assert.Nil(t, s.Image(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWriterTextFallsBackToShell(t *testing.T) {
	var shelled string
	w := &Writer{
		native:    func(context.Context, Kind, []byte) bool { return false },
		shellText: func(s string) error { shelled = s; return nil },
	}
	require.NoError(t, w.WriteText(context.Background(), "copy me"))
	assert.Equal(t, "copy me", shelled)
}

func TestWriterTextNativeWins(t *testing.T) {
	called := false
	w := &Writer{
		native:    func(context.Context, Kind, []byte) bool { return true },
		shellText: func(string) error { called = true; return nil },
	}
	require.NoError(t, w.WriteText(context.Background(), "x"))
	assert.False(t, called)
}

func TestWriterTextAllFail(t *testing.T) {
	w := &Writer{
		native:    func(context.Context, Kind, []byte) bool { return false },
		shellText: func(string) error { return errors.New("no xclip") },
	}
	err := w.WriteText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestWriterImageCommands(t *testing.T) {
	var ran []string
	w := &Writer{
		native: func(context.Context, Kind, []byte) bool { return false },
		imageCmds: func(string) []copyCommand {
			return []copyCommand{{name: "first"}, {name: "second"}}
		},
		runCommand: func(_ context.Context, c copyCommand, _ []byte) error {
			ran = append(ran, c.name)
			if c.name == "first" {
				return errors.New("failed")
			}
			return nil
		},
	}
	require.NoError(t, w.WriteImage(context.Background(), imageBytes(200), "/tmp/x.png"))
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestWriterImageNoUtilities(t *testing.T) {
	w := &Writer{
		native:    func(context.Context, Kind, []byte) bool { return false },
		imageCmds: func(string) []copyCommand { return nil },
	}
	err := w.WriteImage(context.Background(), imageBytes(200), "")
	assert.ErrorIs(t, err, ErrWriteFailed)
}
