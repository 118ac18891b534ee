package reverb

// xorshift32 is the raw 32-bit generator behind the Galactic denormal and
// dither paths. The exponent-scaled dither formula depends on this exact
// sequence, so it is kept separate from the engine's general-purpose rand
// source.
type xorshift32 struct {
	state uint32
}

func (x *xorshift32) next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}
