package m6502

type addrMode uint8

const (
	modeImp addrMode = iota
	modeAcc
	modeImm
	modeZP
	modeZPX
	modeZPY
	modeAbs
	modeAbsX
	modeAbsY
	modeInd
	modeIndX
	modeIndY
	modeRel
)

type inst uint8

const (
	opNOP inst = iota
	opADC
	opAND
	opASL
	opBCC
	opBCS
	opBEQ
	opBIT
	opBMI
	opBNE
	opBPL
	opBRK
	opBVC
	opBVS
	opCLC
	opCLD
	opCLI
	opCLV
	opCMP
	opCPX
	opCPY
	opDEC
	opDEX
	opDEY
	opEOR
	opINC
	opINX
	opINY
	opJMP
	opJSR
	opLDA
	opLDX
	opLDY
	opLSR
	opORA
	opPHA
	opPHP
	opPLA
	opPLP
	opROL
	opROR
	opRTI
	opRTS
	opSBC
	opSEC
	opSED
	opSEI
	opSTA
	opSTX
	opSTY
	opTAX
	opTAY
	opTSX
	opTXA
	opTXS
	opTYA

	// undocumented
	opJAM
	opSLO
	opRLA
	opSRE
	opRRA
	opSAX
	opLAX
	opDCP
	opISC
	opANC
	opALR
	opARR
	opAXS
	opLXA
	opXAA
	opLAS
	opAHX
	opSHX
	opSHY
	opTAS
)

// opInfo describes one opcode. cycles is the base cost; penalty marks
// reads that take one more cycle when indexing crosses a page.
type opInfo struct {
	op      inst
	mode    addrMode
	cycles  uint8
	penalty bool
}

var opTable [256]opInfo

func set(code byte, op inst, mode addrMode, cycles uint8, penalty bool) {
	opTable[code] = opInfo{op: op, mode: mode, cycles: cycles, penalty: penalty}
}

// readGroup fills the eight standard addressing modes of ORA, AND, EOR,
// ADC, LDA, CMP and SBC.
func readGroup(base byte, op inst) {
	set(base|0x09, op, modeImm, 2, false)
	set(base|0x05, op, modeZP, 3, false)
	set(base|0x15, op, modeZPX, 4, false)
	set(base|0x0D, op, modeAbs, 4, false)
	set(base|0x1D, op, modeAbsX, 4, true)
	set(base|0x19, op, modeAbsY, 4, true)
	set(base|0x01, op, modeIndX, 6, false)
	set(base|0x11, op, modeIndY, 5, true)
}

// shiftGroup fills ASL, ROL, LSR and ROR.
func shiftGroup(base byte, op inst) {
	set(base|0x0A, op, modeAcc, 2, false)
	set(base|0x06, op, modeZP, 5, false)
	set(base|0x16, op, modeZPX, 6, false)
	set(base|0x0E, op, modeAbs, 6, false)
	set(base|0x1E, op, modeAbsX, 7, false)
}

// comboGroup fills the read-modify-write combinations SLO, RLA, SRE, RRA,
// DCP and ISC.
func comboGroup(base byte, op inst) {
	set(base|0x07, op, modeZP, 5, false)
	set(base|0x17, op, modeZPX, 6, false)
	set(base|0x0F, op, modeAbs, 6, false)
	set(base|0x1F, op, modeAbsX, 7, false)
	set(base|0x1B, op, modeAbsY, 7, false)
	set(base|0x03, op, modeIndX, 8, false)
	set(base|0x13, op, modeIndY, 8, false)
}

func init() {
	for i := range opTable {
		opTable[i] = opInfo{op: opNOP, mode: modeImp, cycles: 2}
	}

	readGroup(0x00, opORA)
	readGroup(0x20, opAND)
	readGroup(0x40, opEOR)
	readGroup(0x60, opADC)
	readGroup(0xA0, opLDA)
	readGroup(0xC0, opCMP)
	readGroup(0xE0, opSBC)

	set(0x85, opSTA, modeZP, 3, false)
	set(0x95, opSTA, modeZPX, 4, false)
	set(0x8D, opSTA, modeAbs, 4, false)
	set(0x9D, opSTA, modeAbsX, 5, false)
	set(0x99, opSTA, modeAbsY, 5, false)
	set(0x81, opSTA, modeIndX, 6, false)
	set(0x91, opSTA, modeIndY, 6, false)

	shiftGroup(0x00, opASL)
	shiftGroup(0x20, opROL)
	shiftGroup(0x40, opLSR)
	shiftGroup(0x60, opROR)

	set(0xC6, opDEC, modeZP, 5, false)
	set(0xD6, opDEC, modeZPX, 6, false)
	set(0xCE, opDEC, modeAbs, 6, false)
	set(0xDE, opDEC, modeAbsX, 7, false)
	set(0xE6, opINC, modeZP, 5, false)
	set(0xF6, opINC, modeZPX, 6, false)
	set(0xEE, opINC, modeAbs, 6, false)
	set(0xFE, opINC, modeAbsX, 7, false)

	set(0x10, opBPL, modeRel, 2, false)
	set(0x30, opBMI, modeRel, 2, false)
	set(0x50, opBVC, modeRel, 2, false)
	set(0x70, opBVS, modeRel, 2, false)
	set(0x90, opBCC, modeRel, 2, false)
	set(0xB0, opBCS, modeRel, 2, false)
	set(0xD0, opBNE, modeRel, 2, false)
	set(0xF0, opBEQ, modeRel, 2, false)

	set(0x24, opBIT, modeZP, 3, false)
	set(0x2C, opBIT, modeAbs, 4, false)
	set(0x00, opBRK, modeImp, 7, false)
	set(0x18, opCLC, modeImp, 2, false)
	set(0xD8, opCLD, modeImp, 2, false)
	set(0x58, opCLI, modeImp, 2, false)
	set(0xB8, opCLV, modeImp, 2, false)
	set(0x38, opSEC, modeImp, 2, false)
	set(0xF8, opSED, modeImp, 2, false)
	set(0x78, opSEI, modeImp, 2, false)

	set(0xE0, opCPX, modeImm, 2, false)
	set(0xE4, opCPX, modeZP, 3, false)
	set(0xEC, opCPX, modeAbs, 4, false)
	set(0xC0, opCPY, modeImm, 2, false)
	set(0xC4, opCPY, modeZP, 3, false)
	set(0xCC, opCPY, modeAbs, 4, false)

	set(0xCA, opDEX, modeImp, 2, false)
	set(0x88, opDEY, modeImp, 2, false)
	set(0xE8, opINX, modeImp, 2, false)
	set(0xC8, opINY, modeImp, 2, false)

	set(0x4C, opJMP, modeAbs, 3, false)
	set(0x6C, opJMP, modeInd, 5, false)
	set(0x20, opJSR, modeAbs, 6, false)
	set(0x40, opRTI, modeImp, 6, false)
	set(0x60, opRTS, modeImp, 6, false)

	set(0xA2, opLDX, modeImm, 2, false)
	set(0xA6, opLDX, modeZP, 3, false)
	set(0xB6, opLDX, modeZPY, 4, false)
	set(0xAE, opLDX, modeAbs, 4, false)
	set(0xBE, opLDX, modeAbsY, 4, true)
	set(0xA0, opLDY, modeImm, 2, false)
	set(0xA4, opLDY, modeZP, 3, false)
	set(0xB4, opLDY, modeZPX, 4, false)
	set(0xAC, opLDY, modeAbs, 4, false)
	set(0xBC, opLDY, modeAbsX, 4, true)

	set(0x86, opSTX, modeZP, 3, false)
	set(0x96, opSTX, modeZPY, 4, false)
	set(0x8E, opSTX, modeAbs, 4, false)
	set(0x84, opSTY, modeZP, 3, false)
	set(0x94, opSTY, modeZPX, 4, false)
	set(0x8C, opSTY, modeAbs, 4, false)

	set(0x48, opPHA, modeImp, 3, false)
	set(0x08, opPHP, modeImp, 3, false)
	set(0x68, opPLA, modeImp, 4, false)
	set(0x28, opPLP, modeImp, 4, false)

	set(0xAA, opTAX, modeImp, 2, false)
	set(0xA8, opTAY, modeImp, 2, false)
	set(0xBA, opTSX, modeImp, 2, false)
	set(0x8A, opTXA, modeImp, 2, false)
	set(0x9A, opTXS, modeImp, 2, false)
	set(0x98, opTYA, modeImp, 2, false)
	set(0xEA, opNOP, modeImp, 2, false)

	// Undocumented NOPs with operands.
	for _, c := range []byte{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		set(c, opNOP, modeImm, 2, false)
	}
	for _, c := range []byte{0x04, 0x44, 0x64} {
		set(c, opNOP, modeZP, 3, false)
	}
	for _, c := range []byte{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		set(c, opNOP, modeZPX, 4, false)
	}
	set(0x0C, opNOP, modeAbs, 4, false)
	for _, c := range []byte{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		set(c, opNOP, modeAbsX, 4, true)
	}
	for _, c := range []byte{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		set(c, opJAM, modeImp, 2, false)
	}

	comboGroup(0x00, opSLO)
	comboGroup(0x20, opRLA)
	comboGroup(0x40, opSRE)
	comboGroup(0x60, opRRA)
	comboGroup(0xC0, opDCP)
	comboGroup(0xE0, opISC)

	set(0x87, opSAX, modeZP, 3, false)
	set(0x97, opSAX, modeZPY, 4, false)
	set(0x8F, opSAX, modeAbs, 4, false)
	set(0x83, opSAX, modeIndX, 6, false)

	set(0xA7, opLAX, modeZP, 3, false)
	set(0xB7, opLAX, modeZPY, 4, false)
	set(0xAF, opLAX, modeAbs, 4, false)
	set(0xBF, opLAX, modeAbsY, 4, true)
	set(0xA3, opLAX, modeIndX, 6, false)
	set(0xB3, opLAX, modeIndY, 5, true)
	set(0xAB, opLXA, modeImm, 2, false)

	set(0x0B, opANC, modeImm, 2, false)
	set(0x2B, opANC, modeImm, 2, false)
	set(0x4B, opALR, modeImm, 2, false)
	set(0x6B, opARR, modeImm, 2, false)
	set(0xCB, opAXS, modeImm, 2, false)
	set(0xEB, opSBC, modeImm, 2, false)
	set(0x8B, opXAA, modeImm, 2, false)
	set(0xBB, opLAS, modeAbsY, 4, true)

	set(0x9F, opAHX, modeAbsY, 5, false)
	set(0x93, opAHX, modeIndY, 6, false)
	set(0x9E, opSHX, modeAbsY, 5, false)
	set(0x9C, opSHY, modeAbsX, 5, false)
	set(0x9B, opTAS, modeAbsY, 5, false)
}
