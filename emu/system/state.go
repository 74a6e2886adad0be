package system

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"github.com/user-none/go-chip-sn76489"

	"github.com/user-none/em8bit/emu/savestate"
	"github.com/user-none/em8bit/emu/sched"
	"github.com/user-none/em8bit/emu/video"
)

// Save state layout: one root record holding the ROM CRC32, with a child
// record per component. The scheduler, work RAM, cartridge RAM and audio
// filter records are added here, along with the frame buffer so a state
// saved mid-frame resumes with the rows already drawn. Sessions register
// their chips.
const (
	rootTag     = "EM8B"
	rootVersion = 1

	wramTag   = "WRAM"
	cartTag   = "CART"
	audioTag  = "AUDI"
	frameTag  = "FBUF"
	stateVers = 1
)

// Component is one child record of a save state.
type Component struct {
	Tag     string
	Version uint16
	// Optional records are written without the essential flag, so
	// loaders that don't know them skip them. They are also not required
	// on load.
	Optional bool
	Save     func(w *savestate.Writer)
	Load     func(d *savestate.Decoder) error
}

// AddState registers session components. Order is the record order.
func (b *Base) AddState(c ...Component) {
	b.components = append(b.components, c...)
}

func (b *Base) allComponents() []Component {
	all := []Component{{
		Tag:     sched.Tag,
		Version: sched.StateVersion,
		Save:    b.sched.SaveState,
		Load:    b.sched.LoadState,
	}}
	all = append(all, b.components...)
	if len(b.ram) > 0 {
		all = append(all, Component{
			Tag:     wramTag,
			Version: stateVers,
			Save:    func(w *savestate.Writer) { w.Bytes32(b.ram) },
			Load: func(d *savestate.Decoder) error {
				d.Bytes32(b.ram)
				return d.Err()
			},
		})
	}
	if len(b.sram) > 0 {
		all = append(all, Component{
			Tag:     cartTag,
			Version: stateVers,
			Save:    func(w *savestate.Writer) { w.Bytes32(b.sram) },
			Load: func(d *savestate.Decoder) error {
				d.Bytes32(b.sram)
				return d.Err()
			},
		})
	}
	all = append(all, Component{
		Tag:     frameTag,
		Version: stateVers,
		Save:    b.saveFrame,
		Load:    b.loadFrame,
	})
	all = append(all, Component{
		Tag:      audioTag,
		Version:  stateVers,
		Optional: true,
		Save: func(w *savestate.Writer) {
			w.F64(b.filterPrevL)
			w.F64(b.filterPrevR)
			w.Int(b.phase)
		},
		Load: func(d *savestate.Decoder) error {
			b.filterPrevL = d.F64()
			b.filterPrevR = d.F64()
			b.phase = d.Int()
			return d.Err()
		},
	})
	return all
}

// Pixels are stored as 8-bit RGB so a state does not depend on the pixel
// build tag.
func (b *Base) saveFrame(w *savestate.Writer) {
	f := b.frame
	w.U16(uint16(f.Width))
	w.U16(uint16(f.Height))
	r := f.ActiveRect()
	w.U16(uint16(r.Min.X))
	w.U16(uint16(r.Min.Y))
	w.U16(uint16(r.Max.X))
	w.U16(uint16(r.Max.Y))
	rgb := make([]byte, 0, len(f.Pix)*3)
	for _, p := range f.Pix {
		cr, cg, cb := video.Components(p)
		rgb = append(rgb, cr, cg, cb)
	}
	w.Raw(rgb)
}

func (b *Base) loadFrame(d *savestate.Decoder) error {
	f := b.frame
	width, height := int(d.U16()), int(d.U16())
	if d.Err() == nil && (width != f.Width || height != f.Height) {
		return errors.Wrapf(savestate.ErrMalformed, "frame is %dx%d, have %dx%d", width, height, f.Width, f.Height)
	}
	active := image.Rect(int(d.U16()), int(d.U16()), int(d.U16()), int(d.U16()))
	rgb := make([]byte, len(f.Pix)*3)
	d.Raw(rgb)
	if err := d.Err(); err != nil {
		return err
	}
	for i := range f.Pix {
		f.Pix[i] = video.RGB(rgb[3*i], rgb[3*i+1], rgb[3*i+2])
	}
	f.SetActive(active)
	return nil
}

func sections(all []Component) []savestate.Section {
	out := make([]savestate.Section, len(all))
	for i, c := range all {
		out[i] = savestate.Section{Tag: c.Tag, Version: c.Version, Required: !c.Optional, Load: c.Load}
	}
	return out
}

// Serialize creates a save state and returns it as a byte slice.
func (b *Base) Serialize() ([]byte, error) {
	w := savestate.NewWriter()
	w.Begin(rootTag, rootVersion, savestate.FlagEssential)
	w.U32(b.romCRC)
	for _, c := range b.allComponents() {
		var flags uint16
		if !c.Optional {
			flags = savestate.FlagEssential
		}
		w.Begin(c.Tag, c.Version, flags)
		c.Save(w)
		w.End()
	}
	w.End()
	return w.Bytes(), nil
}

// SerializeSize returns the size of a save state for the loaded game.
func (b *Base) SerializeSize() int {
	data, err := b.Serialize()
	if err != nil {
		return 0
	}
	return len(data)
}

func (b *Base) verify(data []byte) (*savestate.Record, error) {
	root, err := savestate.Parse(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != rootTag {
		return nil, errors.Wrapf(savestate.ErrMalformed, "root tag %q", root.Tag)
	}
	if root.Version != rootVersion {
		return nil, errors.Wrapf(savestate.ErrVersion, "root version %d", root.Version)
	}
	d := root.Decoder()
	crc := d.U32()
	if err := d.Finish(); err != nil {
		return nil, err
	}
	if crc != b.romCRC {
		return nil, errors.Wrapf(savestate.ErrWrongROM, "state CRC %08X, ROM %08X", crc, b.romCRC)
	}
	if err := savestate.Check(root, sections(b.allComponents())); err != nil {
		return nil, err
	}
	return root, nil
}

// VerifyState checks if a save state is valid without loading it.
func (b *Base) VerifyState(data []byte) error {
	_, err := b.verify(data)
	return err
}

// Deserialize restores emulator state from a save state byte slice. The
// state is validated before anything is touched, and if a component still
// fails part way the machine is put back as it was. Region is not
// restored; the current region setting is preserved.
func (b *Base) Deserialize(data []byte) error {
	root, err := b.verify(data)
	if err != nil {
		return err
	}
	snapshot, err := b.Serialize()
	if err != nil {
		return err
	}
	secs := sections(b.allComponents())
	if err := savestate.Apply(root, secs); err != nil {
		if prev, perr := savestate.Parse(snapshot); perr == nil {
			_ = savestate.Apply(prev, secs)
		}
		return err
	}
	return nil
}

// psgStateVers covers the chip registers plus the samples it has
// produced since the last mix.
const psgStateVers = 2

// PSGComponent is the "PSG " record for an SN76489. psg is called on every
// save and load since a region change replaces the chip. Output not yet
// mixed into a frame is carried along, so a state saved mid-frame yields
// the same audio for that frame once loaded.
func (b *Base) PSGComponent(psg func() *sn76489.SN76489) Component {
	return Component{
		Tag:     "PSG ",
		Version: psgStateVers,
		Save: func(w *savestate.Writer) {
			buf := make([]byte, sn76489.SerializeSize)
			if err := psg().Serialize(buf); err != nil {
				buf = buf[:0]
			}
			w.Bytes32(buf)
			pending, n := psg().GetBuffer()
			w.U32(uint32(len(b.carry) + n))
			for _, v := range b.carry {
				w.U32(math.Float32bits(v))
			}
			for _, v := range pending[:n] {
				w.U32(math.Float32bits(v))
			}
		},
		Load: func(d *savestate.Decoder) error {
			buf := make([]byte, sn76489.SerializeSize)
			d.Bytes32(buf)
			n := int(d.U32())
			if err := d.Err(); err != nil {
				return err
			}
			if n > d.Remaining()/4 {
				return errors.Wrapf(savestate.ErrLength, "psg: %d pending samples", n)
			}
			carry := make([]float32, n)
			for i := range carry {
				carry[i] = math.Float32frombits(d.U32())
			}
			if err := d.Err(); err != nil {
				return err
			}
			if err := psg().Deserialize(buf); err != nil {
				return err
			}
			b.carry = carry
			return nil
		},
	}
}
