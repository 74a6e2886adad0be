package coleco

type bus struct{ e *Emulator }

func (b *bus) Read(addr uint16) byte      { return b.e.space.Read(addr) }
func (b *bus) Write(addr uint16, v byte)  { b.e.mapper.Write(addr, v) }
func (b *bus) FetchPage(page byte) []byte { return b.e.space.FetchPage(page) }
func (b *bus) Generation() uint32         { return b.e.space.Generation() }
func (b *bus) In(port uint16) byte        { return b.e.in(byte(port)) }
func (b *bus) Out(port uint16, v byte)    { b.e.out(byte(port), v) }

// Ports decode on A7-A5:
//
//	$80-$9F out  keypad mode
//	$A0-$BF      VDP, A0 selects control
//	$C0-$DF out  joystick mode
//	$E0-$FF out  PSG, in controllers with A1 selecting the player
func (e *Emulator) in(port byte) byte {
	switch port & 0xE0 {
	case 0xA0:
		if port&0x01 == 0 {
			return e.vdp.ReadData()
		}
		v := e.vdp.ReadControl()
		e.updateNMI()
		return v
	case 0xE0:
		return e.controller(int(port>>1) & 1)
	}
	return 0xFF
}

func (e *Emulator) out(port byte, v byte) {
	switch port & 0xE0 {
	case 0x80:
		e.joystick = false
	case 0xA0:
		if port&0x01 == 0 {
			e.vdp.WriteData(v)
		} else {
			e.vdp.WriteControl(v)
			e.updateNMI()
		}
	case 0xC0:
		e.joystick = true
	case 0xE0:
		e.psg.Write(v)
	}
}
