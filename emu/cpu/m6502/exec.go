package m6502

func pageCrossed(a, b uint16) bool { return a&0xFF00 != b&0xFF00 }

// address resolves the effective address for a memory operand. penalty
// charges the page-cross cycle for indexed reads.
func (c *CPU) address(m addrMode, penalty bool) uint16 {
	switch m {
	case modeZP:
		return uint16(c.fetchByte())
	case modeZPX:
		return uint16(c.fetchByte() + c.X)
	case modeZPY:
		return uint16(c.fetchByte() + c.Y)
	case modeAbs:
		return c.fetchWord()
	case modeAbsX:
		base := c.fetchWord()
		addr := base + uint16(c.X)
		if penalty && pageCrossed(base, addr) {
			c.cycles++
		}
		return addr
	case modeAbsY:
		base := c.fetchWord()
		addr := base + uint16(c.Y)
		if penalty && pageCrossed(base, addr) {
			c.cycles++
		}
		return addr
	case modeInd:
		// The high byte is fetched without carrying into the page.
		ptr := c.fetchWord()
		lo := c.read(ptr)
		hi := c.read(ptr&0xFF00 | (ptr+1)&0x00FF)
		return uint16(hi)<<8 | uint16(lo)
	case modeIndX:
		zp := c.fetchByte() + c.X
		return uint16(c.read(uint16(zp+1)))<<8 | uint16(c.read(uint16(zp)))
	case modeIndY:
		zp := c.fetchByte()
		base := uint16(c.read(uint16(zp+1)))<<8 | uint16(c.read(uint16(zp)))
		addr := base + uint16(c.Y)
		if penalty && pageCrossed(base, addr) {
			c.cycles++
		}
		return addr
	}
	return 0
}

// operand returns the value named by an instruction's operand.
func (c *CPU) operand(info *opInfo) byte {
	switch info.mode {
	case modeImm:
		return c.fetchByte()
	case modeAcc, modeImp:
		return c.A
	}
	return c.read(c.address(info.mode, info.penalty))
}

// modify applies f to the accumulator or to memory.
func (c *CPU) modify(info *opInfo, f func(byte) byte) byte {
	if info.mode == modeAcc {
		c.A = f(c.A)
		return c.A
	}
	addr := c.address(info.mode, false)
	v := f(c.read(addr))
	c.write(addr, v)
	return v
}

func (c *CPU) branch(cond bool) {
	off := int8(c.fetchByte())
	if !cond {
		return
	}
	c.cycles++
	old := c.PC
	c.PC += uint16(off)
	if pageCrossed(old, c.PC) {
		c.cycles++
	}
}

func (c *CPU) exec(info *opInfo) {
	switch info.op {
	case opNOP:
		if info.mode != modeImp {
			c.operand(info)
		}

	case opLDA:
		c.A = c.operand(info)
		c.setNZ(c.A)
	case opLDX:
		c.X = c.operand(info)
		c.setNZ(c.X)
	case opLDY:
		c.Y = c.operand(info)
		c.setNZ(c.Y)
	case opSTA:
		c.write(c.address(info.mode, false), c.A)
	case opSTX:
		c.write(c.address(info.mode, false), c.X)
	case opSTY:
		c.write(c.address(info.mode, false), c.Y)

	case opADC:
		c.adc(c.operand(info))
	case opSBC:
		c.sbc(c.operand(info))
	case opAND:
		c.A &= c.operand(info)
		c.setNZ(c.A)
	case opORA:
		c.A |= c.operand(info)
		c.setNZ(c.A)
	case opEOR:
		c.A ^= c.operand(info)
		c.setNZ(c.A)
	case opCMP:
		c.compare(c.A, c.operand(info))
	case opCPX:
		c.compare(c.X, c.operand(info))
	case opCPY:
		c.compare(c.Y, c.operand(info))
	case opBIT:
		v := c.operand(info)
		c.P = c.P&^(flagN|flagV|flagZ) | v&(flagN|flagV)
		if c.A&v == 0 {
			c.P |= flagZ
		}

	case opASL:
		c.setNZ(c.modify(info, c.asl))
	case opLSR:
		c.setNZ(c.modify(info, c.lsr))
	case opROL:
		c.setNZ(c.modify(info, c.rol))
	case opROR:
		c.setNZ(c.modify(info, c.ror))
	case opINC:
		c.setNZ(c.modify(info, func(v byte) byte { return v + 1 }))
	case opDEC:
		c.setNZ(c.modify(info, func(v byte) byte { return v - 1 }))

	case opINX:
		c.X++
		c.setNZ(c.X)
	case opINY:
		c.Y++
		c.setNZ(c.Y)
	case opDEX:
		c.X--
		c.setNZ(c.X)
	case opDEY:
		c.Y--
		c.setNZ(c.Y)
	case opTAX:
		c.X = c.A
		c.setNZ(c.X)
	case opTAY:
		c.Y = c.A
		c.setNZ(c.Y)
	case opTXA:
		c.A = c.X
		c.setNZ(c.A)
	case opTYA:
		c.A = c.Y
		c.setNZ(c.A)
	case opTSX:
		c.X = c.S
		c.setNZ(c.X)
	case opTXS:
		c.S = c.X

	case opCLC:
		c.P &^= flagC
	case opSEC:
		c.P |= flagC
	case opCLI:
		c.P &^= flagI
	case opSEI:
		c.P |= flagI
	case opCLD:
		c.P &^= flagD
	case opSED:
		c.P |= flagD
	case opCLV:
		c.P &^= flagV

	case opPHA:
		c.push(c.A)
	case opPHP:
		c.push(c.P | flagB | flagU)
	case opPLA:
		c.A = c.pop()
		c.setNZ(c.A)
	case opPLP:
		c.P = c.pop()&^flagB | flagU

	case opBPL:
		c.branch(c.P&flagN == 0)
	case opBMI:
		c.branch(c.P&flagN != 0)
	case opBVC:
		c.branch(c.P&flagV == 0)
	case opBVS:
		c.branch(c.P&flagV != 0)
	case opBCC:
		c.branch(c.P&flagC == 0)
	case opBCS:
		c.branch(c.P&flagC != 0)
	case opBNE:
		c.branch(c.P&flagZ == 0)
	case opBEQ:
		c.branch(c.P&flagZ != 0)

	case opJMP:
		c.PC = c.address(info.mode, false)
	case opJSR:
		target := c.fetchWord()
		c.push16(c.PC - 1)
		c.PC = target
	case opRTS:
		c.PC = c.pop16() + 1
	case opRTI:
		c.P = c.pop()&^flagB | flagU
		c.PC = c.pop16()
	case opBRK:
		c.PC++
		c.interrupt(VectorIRQ, true)

	default:
		c.execUndocumented(info)
	}
}

func (c *CPU) execUndocumented(info *opInfo) {
	switch info.op {
	case opJAM:
		c.jammed = true
		c.PC--
	case opSLO:
		v := c.modify(info, c.asl)
		c.A |= v
		c.setNZ(c.A)
	case opRLA:
		v := c.modify(info, c.rol)
		c.A &= v
		c.setNZ(c.A)
	case opSRE:
		v := c.modify(info, c.lsr)
		c.A ^= v
		c.setNZ(c.A)
	case opRRA:
		v := c.modify(info, c.ror)
		c.adc(v)
	case opDCP:
		v := c.modify(info, func(v byte) byte { return v - 1 })
		c.compare(c.A, v)
	case opISC:
		v := c.modify(info, func(v byte) byte { return v + 1 })
		c.sbc(v)
	case opSAX:
		c.write(c.address(info.mode, false), c.A&c.X)
	case opLAX:
		c.A = c.operand(info)
		c.X = c.A
		c.setNZ(c.A)
	case opLXA:
		c.A = (c.A | 0xEE) & c.fetchByte()
		c.X = c.A
		c.setNZ(c.A)
	case opXAA:
		c.A = (c.A | 0xEE) & c.X & c.fetchByte()
		c.setNZ(c.A)
	case opANC:
		c.A &= c.fetchByte()
		c.setNZ(c.A)
		c.setFlag(flagC, c.A&0x80 != 0)
	case opALR:
		c.A = c.lsr(c.A & c.fetchByte())
		c.setNZ(c.A)
	case opARR:
		v := c.A & c.fetchByte()
		c.A = v>>1 | (c.P&flagC)<<7
		c.setNZ(c.A)
		c.setFlag(flagC, c.A&0x40 != 0)
		c.setFlag(flagV, (c.A>>6^c.A>>5)&1 != 0)
	case opAXS:
		t := c.A & c.X
		imm := c.fetchByte()
		c.setFlag(flagC, t >= imm)
		c.X = t - imm
		c.setNZ(c.X)
	case opLAS:
		v := c.operand(info) & c.S
		c.A, c.X, c.S = v, v, v
		c.setNZ(v)
	case opAHX, opSHX, opSHY, opTAS:
		c.unstableStore(info)
	}
}

// unstableStore implements the stores that AND the value with the high
// byte of the base address plus one.
func (c *CPU) unstableStore(info *opInfo) {
	addr := c.address(info.mode, false)
	var index byte
	if info.mode == modeAbsX {
		index = c.X
	} else {
		index = c.Y
	}
	hi := byte((addr-uint16(index))>>8) + 1
	var v byte
	switch info.op {
	case opAHX:
		v = c.A & c.X & hi
	case opSHX:
		v = c.X & hi
	case opSHY:
		v = c.Y & hi
	case opTAS:
		c.S = c.A & c.X
		v = c.S & hi
	}
	c.write(addr, v)
}

func (c *CPU) asl(v byte) byte {
	c.setFlag(flagC, v&0x80 != 0)
	return v << 1
}

func (c *CPU) lsr(v byte) byte {
	c.setFlag(flagC, v&1 != 0)
	return v >> 1
}

func (c *CPU) rol(v byte) byte {
	carry := c.P & flagC
	c.setFlag(flagC, v&0x80 != 0)
	return v<<1 | carry
}

func (c *CPU) ror(v byte) byte {
	carry := c.P & flagC
	c.setFlag(flagC, v&1 != 0)
	return v>>1 | carry<<7
}

func (c *CPU) compare(reg, v byte) {
	c.setFlag(flagC, reg >= v)
	c.setNZ(reg - v)
}

func (c *CPU) adc(v byte) {
	carry := uint16(c.P & flagC)
	a := c.A
	sum := uint16(a) + uint16(v) + carry
	if !c.Decimal || c.P&flagD == 0 {
		res := byte(sum)
		c.setFlag(flagC, sum > 0xFF)
		c.setFlag(flagV, (a^res)&(v^res)&0x80 != 0)
		c.A = res
		c.setNZ(res)
		return
	}

	lo := uint16(a&0x0F) + uint16(v&0x0F) + carry
	hi := uint16(a>>4) + uint16(v>>4)
	if lo > 9 {
		lo += 6
	}
	if lo > 0x0F {
		hi++
	}
	c.setFlag(flagZ, byte(sum) == 0)
	c.setFlag(flagN, (hi<<4)&0x80 != 0)
	c.setFlag(flagV, (byte(hi<<4)^a)&0x80 != 0 && (a^v)&0x80 == 0)
	if hi > 9 {
		hi += 6
	}
	c.setFlag(flagC, hi > 0x0F)
	c.A = byte(hi<<4) | byte(lo&0x0F)
}

func (c *CPU) sbc(v byte) {
	if !c.Decimal || c.P&flagD == 0 {
		c.adc(^v)
		return
	}
	borrow := 1 - int(c.P&flagC)
	a := c.A
	diff := int(a) - int(v) - borrow
	res := byte(diff)
	c.setFlag(flagC, diff >= 0)
	c.setFlag(flagV, (a^v)&(a^res)&0x80 != 0)
	c.setNZ(res)

	lo := int(a&0x0F) - int(v&0x0F) - borrow
	hi := int(a>>4) - int(v>>4)
	if lo < 0 {
		lo -= 6
		hi--
	}
	if hi < 0 {
		hi -= 6
	}
	c.A = byte(hi<<4) | byte(lo&0x0F)
}
