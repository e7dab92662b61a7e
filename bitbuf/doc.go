/*
Package bitbuf implements a bit-addressable read/write buffer used to pack
network messages at bit rather than byte granularity.

Layout:

	- Bits are stored least-significant-bit first. Bit i of the stream is
	  bit (i % 8) of byte (i / 8), and the low bit of every value is written
	  first. Values may straddle byte boundaries.
	- Unsigned values occupy exactly the declared number of bits.
	- Signed values are zig-zag mapped before packing, so -1 becomes 1,
	  1 becomes 2, -2 becomes 3 and so on. A value fits in N bits when it lies
	  in [-2^(N-1), 2^(N-1)-1].
	- bool: one bit.
	- string: a 9-bit byte length (at most 511), a 1-bit ASCII flag, then
	  7 bits per byte for ASCII strings or 8 bits per byte otherwise.

There is no framing, length or type information in the stream. A receiver
must read fields in exactly the order and widths the sender wrote them:

	b := bitbuf.New()
	b.AddInt32(playerID)
	if err := b.AddUInt(code, 16); err != nil {
		return err
	}
	data := b.ToArray()

	r := bitbuf.FromArray(data)
	playerID, err := r.ReadInt32()
	code, err := r.ReadUInt(16)

Bit widths outside 1..32 (1..64 for the Long variants) are schema errors and
panic at the call site. Reading past the write cursor returns
ErrReadOutOfRange and leaves the read cursor untouched.

A BitBuffer is not safe for concurrent use. Use one buffer per message.
*/
package bitbuf
