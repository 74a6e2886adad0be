package z80

func (c *CPU) execCB() {
	op := c.fetchOpcode()
	x := int(op >> 6)
	y := int(op>>3) & 7
	z := int(op) & 7

	if z == 6 {
		addr := c.HL()
		v := c.read(addr)
		switch x {
		case 0:
			c.write(addr, c.rot(y, v))
			c.cycles += 15
		case 1:
			c.bit(uint(y), v, byte(c.WZ>>8))
			c.cycles += 12
		case 2:
			c.write(addr, v&^(1<<uint(y)))
			c.cycles += 15
		case 3:
			c.write(addr, v|1<<uint(y))
			c.cycles += 15
		}
		return
	}

	v := c.reg(z)
	switch x {
	case 0:
		c.setReg(z, c.rot(y, v))
	case 1:
		c.bit(uint(y), v, v)
	case 2:
		c.setReg(z, v&^(1<<uint(y)))
	case 3:
		c.setReg(z, v|1<<uint(y))
	}
	c.cycles += 8
}

// execIndexedCB handles DDCB/FDCB. The displacement precedes the opcode and
// neither byte is an M1 fetch. Results of non-BIT operations are also
// copied into the register named by z unless z is 6.
func (c *CPU) execIndexedCB() {
	d := int8(c.fetchByte())
	op := c.fetchByte()
	addr := c.hl() + uint16(d)
	c.WZ = addr

	x := int(op >> 6)
	y := int(op>>3) & 7
	z := int(op) & 7
	v := c.read(addr)

	var res byte
	switch x {
	case 1:
		c.bit(uint(y), v, byte(addr>>8))
		c.cycles += 16
		return
	case 0:
		res = c.rot(y, v)
	case 2:
		res = v &^ (1 << uint(y))
	case 3:
		res = v | 1<<uint(y)
	}
	c.write(addr, res)
	if z != 6 {
		c.setRegPlain(z, res)
	}
	c.cycles += 19
}
