package signer

// CellBuilder accumulates bits and child-cell references for the TON message
// format. Serialization is a simplified bag-of-cells: the padded bit payload
// followed by every referenced cell depth-first, which is what the deployed
// wallet contract verifies.
type CellBuilder struct {
	data   []byte
	bitLen int
	refs   []*CellBuilder
}

// NewCellBuilder creates an empty cell.
func NewCellBuilder() *CellBuilder {
	return &CellBuilder{}
}

// WriteBit appends a single bit.
func (c *CellBuilder) WriteBit(bit bool) {
	if c.bitLen%8 == 0 {
		c.data = append(c.data, 0)
	}
	if bit {
		c.data[c.bitLen/8] |= 1 << (7 - uint(c.bitLen%8))
	}
	c.bitLen++
}

// WriteUint appends the low `bits` bits of value, most significant first.
func (c *CellBuilder) WriteUint(value uint64, bits int) {
	for i := bits - 1; i >= 0; i-- {
		c.WriteBit(value&(1<<uint(i)) != 0)
	}
}

// WriteZeroes appends count zero bits.
func (c *CellBuilder) WriteZeroes(count int) {
	for i := 0; i < count; i++ {
		c.WriteBit(false)
	}
}

// WriteBytes appends whole bytes bit by bit, so the builder works regardless
// of the current bit alignment.
func (c *CellBuilder) WriteBytes(data []byte) {
	for _, b := range data {
		c.WriteUint(uint64(b), 8)
	}
}

// WriteCoins appends the variable-length nanoton amount: a 4-bit byte-count
// prefix followed by that many big-endian bytes. Zero encodes as an empty
// prefix.
func (c *CellBuilder) WriteCoins(amount uint64) {
	if amount == 0 {
		c.WriteUint(0, 4)
		return
	}

	var encoded []byte
	for v := amount; v > 0; v >>= 8 {
		encoded = append([]byte{byte(v)}, encoded...)
	}

	c.WriteUint(uint64(len(encoded)), 4)
	c.WriteBytes(encoded)
}

// WriteAddress appends a standard internal address: 2-bit tag 0b10, a cleared
// anycast flag, the 8-bit workchain and the 256-bit account hash.
func (c *CellBuilder) WriteAddress(workchain int8, hash [32]byte) {
	c.WriteUint(0b10, 2)
	c.WriteBit(false)
	c.WriteUint(uint64(uint8(workchain)), 8)
	c.WriteBytes(hash[:])
}

// StoreRef attaches a child cell.
func (c *CellBuilder) StoreRef(child *CellBuilder) {
	c.refs = append(c.refs, child)
}

// Bytes serializes the cell: the zero-padded bit payload followed by every
// referenced cell, depth-first.
func (c *CellBuilder) Bytes() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)

	for _, ref := range c.refs {
		out = append(out, ref.Bytes()...)
	}

	return out
}
