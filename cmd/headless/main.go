// Command headless runs a ROM for a fixed number of frames without a
// window and writes the audio and the last frame to files. It is meant
// for regression checks and scripted captures.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"os"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	emucore "github.com/user-none/eblitui/api"
	"golang.org/x/image/draw"

	"github.com/user-none/em8bit/adapter"
	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/system"
)

type config struct {
	romPath  string
	system   string
	region   string
	biosPath string
	frames   int
	wavPath  string
	pngPath  string
	scale    int
	options  map[string]string
}

func main() {
	var cfg config
	var opts string
	flag.StringVar(&cfg.romPath, "rom", "", "path to ROM file (required)")
	flag.StringVar(&cfg.system, "system", "", "system name (default from the ROM extension)")
	flag.StringVar(&cfg.region, "region", "auto", "region: auto, ntsc, or pal")
	flag.StringVar(&cfg.biosPath, "bios", "", "path to the console BIOS (ColecoVision)")
	flag.IntVar(&cfg.frames, "frames", 600, "frames to run")
	flag.StringVar(&cfg.wavPath, "wav", "", "write audio to this WAV file")
	flag.StringVar(&cfg.pngPath, "png", "", "write the last frame to this PNG file")
	flag.IntVar(&cfg.scale, "scale", 1, "PNG scale factor")
	flag.StringVar(&opts, "options", "", "core options as key=value,key=value")
	flag.Parse()

	if cfg.romPath == "" {
		log.Fatal("ROM path is required. Usage: headless -rom <path> [-frames n] [-wav out.wav] [-png out.png]")
	}
	var err error
	if cfg.options, err = parseOptions(opts); err != nil {
		log.Fatal(err)
	}

	res, err := run(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: %d frames, %d samples, state %d bytes", cfg.romPath, res.frames, res.samples, res.stateSize)
}

type result struct {
	frames    int
	samples   int
	stateSize int
	last      *image.RGBA
}

func run(cfg config) (*result, error) {
	rom, err := os.ReadFile(cfg.romPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading ROM")
	}
	var bios []byte
	if cfg.biosPath != "" {
		if bios, err = os.ReadFile(cfg.biosPath); err != nil {
			return nil, errors.Wrap(err, "reading BIOS")
		}
	}

	sys, err := cart.SystemFromPath(cfg.romPath)
	if cfg.system != "" {
		sys, err = cart.ParseSystem(cfg.system)
	}
	if err != nil {
		return nil, err
	}
	c, err := cart.Load(sys, rom, bios)
	if err != nil {
		return nil, err
	}

	region, err := pickRegion(cfg.region, c)
	if err != nil {
		return nil, err
	}
	s, err := adapter.NewSession(c, region)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	for k, v := range cfg.options {
		s.SetOption(k, v)
	}

	var enc *wav.Encoder
	if cfg.wavPath != "" {
		f, err := os.Create(cfg.wavPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		enc = wav.NewEncoder(f, system.SampleRate, 16, 2, 1)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: system.SampleRate},
		SourceBitDepth: 16,
	}

	res := &result{}
	for res.frames < cfg.frames {
		s.RunFrame()
		res.frames++
		samples := s.GetAudioSamples()
		res.samples += len(samples) / 2
		if enc == nil {
			continue
		}
		buf.Data = buf.Data[:0]
		for _, v := range samples {
			buf.Data = append(buf.Data, int(v))
		}
		if err := enc.Write(buf); err != nil {
			return nil, errors.Wrap(err, "writing WAV")
		}
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "closing WAV")
		}
		log.Printf("wrote %s", cfg.wavPath)
	}

	if state, err := s.Serialize(); err == nil {
		res.stateSize = len(state)
	}

	res.last = scaleImage(s.Frame().Image(), cfg.scale)
	if cfg.pngPath != "" {
		if err := writePNG(cfg.pngPath, res.last); err != nil {
			return nil, err
		}
		log.Printf("wrote %s", cfg.pngPath)
	}
	return res, nil
}

func pickRegion(name string, c *cart.Cartridge) (emucore.Region, error) {
	switch strings.ToLower(name) {
	case "auto":
		if c.Meta.PAL {
			return emucore.RegionPAL, nil
		}
		return emucore.RegionNTSC, nil
	case "ntsc":
		return emucore.RegionNTSC, nil
	case "pal":
		return emucore.RegionPAL, nil
	}
	return 0, errors.Errorf("invalid region %q (use auto, ntsc, or pal)", name)
}

func parseOptions(s string) (map[string]string, error) {
	opts := map[string]string{}
	if s == "" {
		return opts, nil
	}
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("bad option %q, want key=value", kv)
		}
		opts[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return opts, nil
}

// scaleImage enlarges src by an integer factor with nearest neighbour
// sampling so pixels stay sharp.
func scaleImage(src *image.RGBA, scale int) *image.RGBA {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "encoding PNG")
	}
	return f.Close()
}
