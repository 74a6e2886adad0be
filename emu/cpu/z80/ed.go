package z80

var imModes = [8]byte{0, 0, 1, 2, 0, 0, 1, 2}

// execED decodes the ED-prefixed set. Unassigned opcodes are 8 T-state
// no-ops. Costs include the prefix.
func (c *CPU) execED() {
	op := c.fetchOpcode()
	x := int(op >> 6)
	y := int(op>>3) & 7
	z := int(op) & 7
	p, q := y>>1, y&1

	if x == 2 && y >= 4 && z <= 3 {
		c.blockOp(y, z)
		return
	}
	if x != 1 {
		c.cycles += 8
		return
	}

	switch z {
	case 0:
		port := c.BC()
		v := c.bus.In(port)
		c.WZ = port + 1
		c.F = c.F&flagC | sz53p[v]
		if y != 6 {
			c.setReg(y, v)
		}
		c.cycles += 12
	case 1:
		var v byte
		if y != 6 {
			v = c.reg(y)
		}
		c.bus.Out(c.BC(), v)
		c.WZ = c.BC() + 1
		c.cycles += 12
	case 2:
		if q == 0 {
			c.sbc16(c.rp(p))
		} else {
			c.adc16(c.rp(p))
		}
		c.cycles += 15
	case 3:
		nn := c.fetchWord()
		if q == 0 {
			c.write16(nn, c.rp(p))
		} else {
			c.setRP(p, c.read16(nn))
		}
		c.WZ = nn + 1
		c.cycles += 20
	case 4:
		v := c.A
		c.A = 0
		c.A = c.sub8(v, 0)
		c.cycles += 8
	case 5:
		// RETN and RETI both restore IFF1 from IFF2.
		c.PC = c.pop()
		c.WZ = c.PC
		c.IFF1 = c.IFF2
		c.cycles += 14
	case 6:
		c.IM = imModes[y]
		c.cycles += 8
	case 7:
		c.execEDMisc(y)
	}
}

func (c *CPU) execEDMisc(y int) {
	switch y {
	case 0:
		c.I = c.A
		c.cycles += 9
	case 1:
		c.R = c.A
		c.cycles += 9
	case 2, 3:
		if y == 2 {
			c.A = c.I
		} else {
			c.A = c.R
		}
		f := c.F&flagC | sz53[c.A]
		if c.IFF2 {
			f |= flagPV
		}
		c.F = f
		c.cycles += 9
	case 4: // RRD
		addr := c.HL()
		m := c.read(addr)
		c.write(addr, c.A<<4|m>>4)
		c.A = c.A&0xF0 | m&0x0F
		c.F = c.F&flagC | sz53p[c.A]
		c.WZ = addr + 1
		c.cycles += 18
	case 5: // RLD
		addr := c.HL()
		m := c.read(addr)
		c.write(addr, m<<4|c.A&0x0F)
		c.A = c.A&0xF0 | m>>4
		c.F = c.F&flagC | sz53p[c.A]
		c.WZ = addr + 1
		c.cycles += 18
	default:
		c.cycles += 8
	}
}

// blockOp runs one iteration of LDI/CPI/INI/OUTI and their decrementing
// and repeating forms. A repeating form rewinds PC over itself and costs 5
// extra T-states when it will run again.
func (c *CPU) blockOp(y, z int) {
	step := uint16(1)
	if y&1 == 1 {
		step = 0xFFFF
	}
	repeat := y >= 6
	again := false

	switch z {
	case 0: // LD
		v := c.read(c.HL())
		c.write(c.DE(), v)
		c.SetHL(c.HL() + step)
		c.SetDE(c.DE() + step)
		c.SetBC(c.BC() - 1)
		n := v + c.A
		f := c.F&(flagS|flagZ|flagC) | n&flagX | (n<<4)&flagY
		if c.BC() != 0 {
			f |= flagPV
		}
		c.F = f
		again = repeat && c.BC() != 0
	case 1: // CP
		v := c.read(c.HL())
		res := c.A - v
		hf := (c.A ^ v ^ res) & flagH
		c.SetHL(c.HL() + step)
		c.SetBC(c.BC() - 1)
		c.WZ += step
		f := c.F&flagC | flagN | sz53[res]&(flagS|flagZ) | hf
		n := res
		if hf != 0 {
			n--
		}
		f |= n&flagX | (n<<4)&flagY
		if c.BC() != 0 {
			f |= flagPV
		}
		c.F = f
		again = repeat && c.BC() != 0 && res != 0
	case 2: // IN
		v := c.bus.In(c.BC())
		c.WZ = c.BC() + step
		c.write(c.HL(), v)
		c.B--
		c.SetHL(c.HL() + step)
		c.blockIOFlags(v, int(c.C+byte(step)))
		again = repeat && c.B != 0
	case 3: // OUT
		v := c.read(c.HL())
		c.B--
		c.WZ = c.BC() + step
		c.bus.Out(c.BC(), v)
		c.SetHL(c.HL() + step)
		c.blockIOFlags(v, int(c.L))
		again = repeat && c.B != 0
	}

	c.cycles += 16
	if again {
		c.PC -= 2
		c.WZ = c.PC + 1
		c.cycles += 5
	}
}

func (c *CPU) blockIOFlags(v byte, addend int) {
	k := int(v) + addend
	f := sz53[c.B]
	if v&0x80 != 0 {
		f |= flagN
	}
	if k > 0xFF {
		f |= flagH | flagC
	}
	if parity(byte(k&7) ^ c.B) {
		f |= flagPV
	}
	c.F = f
}
