package z80

const (
	flagS  = 0x80
	flagZ  = 0x40
	flagY  = 0x20
	flagH  = 0x10
	flagX  = 0x08
	flagPV = 0x04
	flagN  = 0x02
	flagC  = 0x01

	flagXY = flagX | flagY
)

// sz53 holds S, Z and the undocumented Y/X bits for each result byte.
// sz53p adds even parity in P/V.
var sz53, sz53p [256]byte

func init() {
	for i := 0; i < 256; i++ {
		v := byte(i)
		f := v & (flagS | flagXY)
		if v == 0 {
			f |= flagZ
		}
		sz53[i] = f
		p := v
		p ^= p >> 4
		p ^= p >> 2
		p ^= p >> 1
		if p&1 == 0 {
			f |= flagPV
		}
		sz53p[i] = f
	}
}

func parity(v byte) bool { return sz53p[v]&flagPV != 0 }

func (c *CPU) add8(v, carry byte) {
	a := c.A
	r := uint16(a) + uint16(v) + uint16(carry)
	res := byte(r)
	f := sz53[res]
	if r > 0xFF {
		f |= flagC
	}
	if (a^v^res)&0x10 != 0 {
		f |= flagH
	}
	if (a^res)&(v^res)&0x80 != 0 {
		f |= flagPV
	}
	c.A = res
	c.F = f
}

func (c *CPU) sub8(v, carry byte) byte {
	a := c.A
	r := int(a) - int(v) - int(carry)
	res := byte(r)
	f := sz53[res] | flagN
	if r < 0 {
		f |= flagC
	}
	if (a^v^res)&0x10 != 0 {
		f |= flagH
	}
	if (a^v)&(a^res)&0x80 != 0 {
		f |= flagPV
	}
	c.F = f
	return res
}

// alu performs one of ADD, ADC, SUB, SBC, AND, XOR, OR, CP on A.
func (c *CPU) alu(op int, v byte) {
	switch op {
	case 0:
		c.add8(v, 0)
	case 1:
		c.add8(v, c.F&flagC)
	case 2:
		c.A = c.sub8(v, 0)
	case 3:
		c.A = c.sub8(v, c.F&flagC)
	case 4:
		c.A &= v
		c.F = sz53p[c.A] | flagH
	case 5:
		c.A ^= v
		c.F = sz53p[c.A]
	case 6:
		c.A |= v
		c.F = sz53p[c.A]
	case 7:
		c.sub8(v, 0)
		c.F = c.F&^flagXY | v&flagXY
	}
}

func (c *CPU) inc8(v byte) byte {
	res := v + 1
	f := c.F&flagC | sz53[res]
	if res&0x0F == 0 {
		f |= flagH
	}
	if res == 0x80 {
		f |= flagPV
	}
	c.F = f
	return res
}

func (c *CPU) dec8(v byte) byte {
	res := v - 1
	f := c.F&flagC | flagN | sz53[res]
	if v&0x0F == 0 {
		f |= flagH
	}
	if res == 0x7F {
		f |= flagPV
	}
	c.F = f
	return res
}

func (c *CPU) add16(a, b uint16) uint16 {
	r := uint32(a) + uint32(b)
	res := uint16(r)
	f := c.F&(flagS|flagZ|flagPV) | byte(res>>8)&flagXY
	if r > 0xFFFF {
		f |= flagC
	}
	if (a^b^res)&0x1000 != 0 {
		f |= flagH
	}
	c.F = f
	c.WZ = a + 1
	return res
}

func (c *CPU) adc16(v uint16) {
	hl := c.hl()
	r := uint32(hl) + uint32(v) + uint32(c.F&flagC)
	res := uint16(r)
	f := byte(res>>8) & (flagS | flagXY)
	if res == 0 {
		f |= flagZ
	}
	if r > 0xFFFF {
		f |= flagC
	}
	if (hl^v^res)&0x1000 != 0 {
		f |= flagH
	}
	if (hl^res)&(v^res)&0x8000 != 0 {
		f |= flagPV
	}
	c.WZ = hl + 1
	c.setHL(res)
	c.F = f
}

func (c *CPU) sbc16(v uint16) {
	hl := c.hl()
	r := int32(hl) - int32(v) - int32(c.F&flagC)
	res := uint16(r)
	f := byte(res>>8)&(flagS|flagXY) | flagN
	if res == 0 {
		f |= flagZ
	}
	if r < 0 {
		f |= flagC
	}
	if (hl^v^res)&0x1000 != 0 {
		f |= flagH
	}
	if (hl^v)&(hl^res)&0x8000 != 0 {
		f |= flagPV
	}
	c.WZ = hl + 1
	c.setHL(res)
	c.F = f
}

func (c *CPU) daa() {
	a := c.A
	var diff byte
	carry := c.F&flagC != 0
	if c.F&flagH != 0 || a&0x0F > 9 {
		diff |= 0x06
	}
	if carry || a > 0x99 {
		diff |= 0x60
		carry = true
	}
	var res byte
	f := c.F & flagN
	if f != 0 {
		res = a - diff
		if c.F&flagH != 0 && a&0x0F < 6 {
			f |= flagH
		}
	} else {
		res = a + diff
		if a&0x0F > 9 {
			f |= flagH
		}
	}
	f |= sz53p[res]
	if carry {
		f |= flagC
	}
	c.A = res
	c.F = f
}

// rot applies one of the CB-prefixed rotate/shift operations.
func (c *CPU) rot(op int, v byte) byte {
	var res, carry byte
	switch op {
	case 0: // RLC
		carry = v >> 7
		res = v<<1 | carry
	case 1: // RRC
		carry = v & 1
		res = v>>1 | carry<<7
	case 2: // RL
		carry = v >> 7
		res = v<<1 | c.F&flagC
	case 3: // RR
		carry = v & 1
		res = v>>1 | (c.F&flagC)<<7
	case 4: // SLA
		carry = v >> 7
		res = v << 1
	case 5: // SRA
		carry = v & 1
		res = v>>1 | v&0x80
	case 6: // SLL
		carry = v >> 7
		res = v<<1 | 1
	case 7: // SRL
		carry = v & 1
		res = v >> 1
	}
	c.F = sz53p[res] | carry
	return res
}

// bit sets flags for BIT n,v. xy supplies the undocumented X/Y source.
func (c *CPU) bit(n uint, v byte, xy byte) {
	f := c.F&flagC | flagH | xy&flagXY
	m := v & (1 << n)
	if m == 0 {
		f |= flagZ | flagPV
	}
	if n == 7 && m != 0 {
		f |= flagS
	}
	c.F = f
}

func (c *CPU) condition(y int) bool {
	switch y {
	case 0:
		return c.F&flagZ == 0
	case 1:
		return c.F&flagZ != 0
	case 2:
		return c.F&flagC == 0
	case 3:
		return c.F&flagC != 0
	case 4:
		return c.F&flagPV == 0
	case 5:
		return c.F&flagPV != 0
	case 6:
		return c.F&flagS == 0
	default:
		return c.F&flagS != 0
	}
}
