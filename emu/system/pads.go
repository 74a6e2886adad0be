package system

// SegaPads encodes two joypads onto the $DC/$DD port pair used by the SMS,
// SG-1000 and SC-3000, active low. Bits 6-7 of $DD are left high for the
// caller.
func SegaPads(p1, p2 uint32) (dc, dd byte) {
	dc, dd = 0xFF, 0xFF
	for i, bit := range [...]int{0, 1, 2, 3, Button1, Button2} {
		if Pressed(p1, bit) {
			dc &^= 1 << uint(i)
		}
	}
	if Pressed(p2, 0) {
		dc &^= 0x40
	}
	if Pressed(p2, 1) {
		dc &^= 0x80
	}
	for i, bit := range [...]int{2, 3, Button1, Button2} {
		if Pressed(p2, bit) {
			dd &^= 1 << uint(i)
		}
	}
	return dc, dd
}
