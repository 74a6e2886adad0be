package z80

// Opcodes are decoded from their x/y/z/p/q bit fields:
//
//	x = op[7:6]  y = op[5:3]  z = op[2:0]  p = y>>1  q = y&1
//
// T-state costs below include the opcode fetch. Prefix costs are added by
// the prefix handlers.

func (c *CPU) reg(r int) byte {
	switch r {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		switch c.idx {
		case 1:
			return byte(c.IX >> 8)
		case 2:
			return byte(c.IY >> 8)
		}
		return c.H
	case 5:
		switch c.idx {
		case 1:
			return byte(c.IX)
		case 2:
			return byte(c.IY)
		}
		return c.L
	case 7:
		return c.A
	}
	return 0xFF
}

func (c *CPU) setReg(r int, v byte) {
	switch r {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		switch c.idx {
		case 1:
			c.IX = c.IX&0x00FF | uint16(v)<<8
		case 2:
			c.IY = c.IY&0x00FF | uint16(v)<<8
		default:
			c.H = v
		}
	case 5:
		switch c.idx {
		case 1:
			c.IX = c.IX&0xFF00 | uint16(v)
		case 2:
			c.IY = c.IY&0xFF00 | uint16(v)
		default:
			c.L = v
		}
	case 7:
		c.A = v
	}
}

// regPlain and setRegPlain ignore index substitution. Instructions with an
// (IX+d) operand address the real H and L.
func (c *CPU) regPlain(r int) byte {
	saved := c.idx
	c.idx = 0
	v := c.reg(r)
	c.idx = saved
	return v
}

func (c *CPU) setRegPlain(r int, v byte) {
	saved := c.idx
	c.idx = 0
	c.setReg(r, v)
	c.idx = saved
}

func (c *CPU) rp(p int) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.hl()
	}
	return c.SP
}

func (c *CPU) setRP(p int, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.setHL(v)
	default:
		c.SP = v
	}
}

func (c *CPU) rp2(p int) uint16 {
	if p == 3 {
		return c.AF()
	}
	return c.rp(p)
}

func (c *CPU) setRP2(p int, v uint16) {
	if p == 3 {
		c.SetAF(v)
		return
	}
	c.setRP(p, v)
}

// memOperand returns the address of the (HL) operand. In indexed mode it
// fetches the displacement and charges the extra 8 T-states.
func (c *CPU) memOperand() uint16 {
	if c.idx == 0 {
		return c.HL()
	}
	d := int8(c.fetchByte())
	addr := c.hl() + uint16(d)
	c.WZ = addr
	c.cycles += 8
	return addr
}

func (c *CPU) execute(op byte) {
	x := int(op >> 6)
	y := int(op>>3) & 7
	z := int(op) & 7
	switch x {
	case 0:
		c.execX0(y, z)
	case 1:
		if op == 0x76 {
			c.Halted = true
			c.cycles += 4
			return
		}
		switch {
		case y == 6:
			addr := c.memOperand()
			c.write(addr, c.regPlain(z))
			c.cycles += 7
		case z == 6:
			addr := c.memOperand()
			c.setRegPlain(y, c.read(addr))
			c.cycles += 7
		default:
			c.setReg(y, c.reg(z))
			c.cycles += 4
		}
	case 2:
		if z == 6 {
			addr := c.memOperand()
			c.alu(y, c.read(addr))
			c.cycles += 7
		} else {
			c.alu(y, c.reg(z))
			c.cycles += 4
		}
	case 3:
		c.execX3(y, z)
	}
}

func (c *CPU) jr(d int8) {
	c.PC += uint16(d)
	c.WZ = c.PC
}

func (c *CPU) execX0(y, z int) {
	p, q := y>>1, y&1
	switch z {
	case 0:
		switch y {
		case 0:
			c.cycles += 4
		case 1:
			c.A, c.A2 = c.A2, c.A
			c.F, c.F2 = c.F2, c.F
			c.cycles += 4
		case 2:
			d := int8(c.fetchByte())
			c.B--
			if c.B != 0 {
				c.jr(d)
				c.cycles += 13
			} else {
				c.cycles += 8
			}
		case 3:
			c.jr(int8(c.fetchByte()))
			c.cycles += 12
		default:
			d := int8(c.fetchByte())
			if c.condition(y - 4) {
				c.jr(d)
				c.cycles += 12
			} else {
				c.cycles += 7
			}
		}
	case 1:
		if q == 0 {
			c.setRP(p, c.fetchWord())
			c.cycles += 10
		} else {
			c.setHL(c.add16(c.hl(), c.rp(p)))
			c.cycles += 11
		}
	case 2:
		c.execIndirectLoad(p, q)
	case 3:
		if q == 0 {
			c.setRP(p, c.rp(p)+1)
		} else {
			c.setRP(p, c.rp(p)-1)
		}
		c.cycles += 6
	case 4:
		if y == 6 {
			addr := c.memOperand()
			c.write(addr, c.inc8(c.read(addr)))
			c.cycles += 11
		} else {
			c.setReg(y, c.inc8(c.reg(y)))
			c.cycles += 4
		}
	case 5:
		if y == 6 {
			addr := c.memOperand()
			c.write(addr, c.dec8(c.read(addr)))
			c.cycles += 11
		} else {
			c.setReg(y, c.dec8(c.reg(y)))
			c.cycles += 4
		}
	case 6:
		if y == 6 {
			addr := c.memOperand()
			if c.idx != 0 {
				// displacement and immediate fetches overlap
				c.cycles -= 3
			}
			c.write(addr, c.fetchByte())
			c.cycles += 10
		} else {
			c.setReg(y, c.fetchByte())
			c.cycles += 7
		}
	case 7:
		c.execAccFlags(y)
		c.cycles += 4
	}
}

func (c *CPU) execIndirectLoad(p, q int) {
	switch p {
	case 0, 1:
		addr := c.BC()
		if p == 1 {
			addr = c.DE()
		}
		if q == 0 {
			c.write(addr, c.A)
			c.WZ = uint16(c.A)<<8 | (addr+1)&0xFF
		} else {
			c.A = c.read(addr)
			c.WZ = addr + 1
		}
		c.cycles += 7
	case 2:
		nn := c.fetchWord()
		if q == 0 {
			c.write16(nn, c.hl())
		} else {
			c.setHL(c.read16(nn))
		}
		c.WZ = nn + 1
		c.cycles += 16
	case 3:
		nn := c.fetchWord()
		if q == 0 {
			c.write(nn, c.A)
			c.WZ = uint16(c.A)<<8 | (nn+1)&0xFF
		} else {
			c.A = c.read(nn)
			c.WZ = nn + 1
		}
		c.cycles += 13
	}
}

func (c *CPU) execAccFlags(y int) {
	keep := c.F & (flagS | flagZ | flagPV)
	switch y {
	case 0: // RLCA
		c.A = c.A<<1 | c.A>>7
		c.F = keep | c.A&flagXY | c.A&flagC
	case 1: // RRCA
		carry := c.A & 1
		c.A = c.A>>1 | c.A<<7
		c.F = keep | c.A&flagXY | carry
	case 2: // RLA
		carry := c.A >> 7
		c.A = c.A<<1 | c.F&flagC
		c.F = keep | c.A&flagXY | carry
	case 3: // RRA
		carry := c.A & 1
		c.A = c.A>>1 | (c.F&flagC)<<7
		c.F = keep | c.A&flagXY | carry
	case 4:
		c.daa()
	case 5: // CPL
		c.A = ^c.A
		c.F = c.F&(flagS|flagZ|flagPV|flagC) | flagH | flagN | c.A&flagXY
	case 6: // SCF
		c.F = keep | c.A&flagXY | flagC
	case 7: // CCF
		f := keep | c.A&flagXY
		if c.F&flagC != 0 {
			f |= flagH
		} else {
			f |= flagC
		}
		c.F = f
	}
}

func (c *CPU) execX3(y, z int) {
	p, q := y>>1, y&1
	switch z {
	case 0:
		if c.condition(y) {
			c.PC = c.pop()
			c.WZ = c.PC
			c.cycles += 11
		} else {
			c.cycles += 5
		}
	case 1:
		if q == 0 {
			c.setRP2(p, c.pop())
			c.cycles += 10
			return
		}
		switch p {
		case 0:
			c.PC = c.pop()
			c.WZ = c.PC
			c.cycles += 10
		case 1:
			c.B, c.B2 = c.B2, c.B
			c.C, c.C2 = c.C2, c.C
			c.D, c.D2 = c.D2, c.D
			c.E, c.E2 = c.E2, c.E
			c.H, c.H2 = c.H2, c.H
			c.L, c.L2 = c.L2, c.L
			c.cycles += 4
		case 2:
			c.PC = c.hl()
			c.cycles += 4
		case 3:
			c.SP = c.hl()
			c.cycles += 6
		}
	case 2:
		nn := c.fetchWord()
		c.WZ = nn
		if c.condition(y) {
			c.PC = nn
		}
		c.cycles += 10
	case 3:
		c.execX3Z3(y)
	case 4:
		nn := c.fetchWord()
		c.WZ = nn
		if c.condition(y) {
			c.push(c.PC)
			c.PC = nn
			c.cycles += 17
		} else {
			c.cycles += 10
		}
	case 5:
		if q == 0 {
			c.push(c.rp2(p))
			c.cycles += 11
			return
		}
		switch p {
		case 0:
			nn := c.fetchWord()
			c.WZ = nn
			c.push(c.PC)
			c.PC = nn
			c.cycles += 17
		case 1:
			c.execIndexed(1)
		case 2:
			c.idx = 0
			c.execED()
		case 3:
			c.execIndexed(2)
		}
	case 6:
		c.alu(y, c.fetchByte())
		c.cycles += 7
	case 7:
		c.push(c.PC)
		c.PC = uint16(y) * 8
		c.WZ = c.PC
		c.cycles += 11
	}
}

func (c *CPU) execX3Z3(y int) {
	switch y {
	case 0:
		c.PC = c.fetchWord()
		c.WZ = c.PC
		c.cycles += 10
	case 1:
		if c.idx != 0 {
			c.execIndexedCB()
		} else {
			c.execCB()
		}
	case 2:
		n := c.fetchByte()
		c.bus.Out(uint16(c.A)<<8|uint16(n), c.A)
		c.WZ = uint16(c.A)<<8 | uint16(n+1)
		c.cycles += 11
	case 3:
		port := uint16(c.A)<<8 | uint16(c.fetchByte())
		c.A = c.bus.In(port)
		c.WZ = port + 1
		c.cycles += 11
	case 4:
		v := c.read16(c.SP)
		c.write16(c.SP, c.hl())
		c.setHL(v)
		c.WZ = v
		c.cycles += 19
	case 5:
		d, e := c.D, c.E
		c.D, c.E = c.H, c.L
		c.H, c.L = d, e
		c.cycles += 4
	case 6:
		c.IFF1, c.IFF2 = false, false
		c.cycles += 4
	case 7:
		c.IFF1, c.IFF2 = true, true
		c.eiDelay = true
		c.cycles += 4
	}
}

// execIndexed handles a DD (which=1) or FD (which=2) prefix. Chained
// prefixes each cost 4 T-states and the last one wins.
func (c *CPU) execIndexed(which int) {
	c.cycles += 4
	op := c.fetchOpcode()
	for op == 0xDD || op == 0xFD {
		c.cycles += 4
		which = 1
		if op == 0xFD {
			which = 2
		}
		op = c.fetchOpcode()
	}
	if op == 0xED {
		c.idx = 0
		c.execED()
		return
	}
	c.idx = which
	if op == 0xCB {
		c.execIndexedCB()
	} else {
		c.execute(op)
	}
	c.idx = 0
}
