package signer_test

import (
	"testing"

	"github.com/chainvault/go-signer/internal/wallet/signer"
	"github.com/stretchr/testify/assert"
)

func TestCellBuilderBits(t *testing.T) {
	cell := signer.NewCellBuilder()
	cell.WriteBit(true)
	cell.WriteZeroes(7)

	assert.Equal(t, []byte{0x80}, cell.Bytes())
}

func TestCellBuilderUint(t *testing.T) {
	cell := signer.NewCellBuilder()
	cell.WriteUint(0xAB, 8)
	cell.WriteUint(0xCDEF, 16)

	assert.Equal(t, []byte{0xAB, 0xCD, 0xEF}, cell.Bytes())
}

func TestCellBuilderUnalignedBytes(t *testing.T) {
	// A leading bit shifts every following byte by one bit.
	cell := signer.NewCellBuilder()
	cell.WriteBit(true)
	cell.WriteBytes([]byte{0xFF})

	assert.Equal(t, []byte{0xFF, 0x80}, cell.Bytes())
}

func TestCellBuilderCoins(t *testing.T) {
	zero := signer.NewCellBuilder()
	zero.WriteCoins(0)
	assert.Equal(t, []byte{0x00}, zero.Bytes(), "zero coins is a bare 4-bit length")

	cell := signer.NewCellBuilder()
	cell.WriteCoins(0x0102)

	// 4-bit length 2, then 0x01 0x02, zero-padded to the byte boundary
	assert.Equal(t, []byte{0x20, 0x10, 0x20}, cell.Bytes())
}

func TestCellBuilderAddress(t *testing.T) {
	var hash [32]byte
	for i := range hash {
		hash[i] = byte(i)
	}

	cell := signer.NewCellBuilder()
	cell.WriteAddress(0, hash)

	// 2-bit tag + anycast bit + 8-bit workchain + 256-bit hash = 267 bits
	encoded := cell.Bytes()
	assert.Len(t, encoded, 34)
	assert.Equal(t, byte(0b100_00000), encoded[0]&0b111_00000, "tag 0b10, anycast 0")
}

func TestCellBuilderRefsDepthFirst(t *testing.T) {
	leaf := signer.NewCellBuilder()
	leaf.WriteUint(0x03, 8)

	child := signer.NewCellBuilder()
	child.WriteUint(0x02, 8)
	child.StoreRef(leaf)

	root := signer.NewCellBuilder()
	root.WriteUint(0x01, 8)
	root.StoreRef(child)

	assert.Equal(t, []byte{0x01, 0x02, 0x03}, root.Bytes())
}
