package lnwire

import "fmt"

// ShortChannelID encodes a funding transaction's on-chain location as a
// single 64-bit value: 24 bits of block height, 24 bits of transaction
// index within the block, and 16 bits of output index, packed big-endian
// high to low.
type ShortChannelID struct {
	BlockHeight uint32
	TxIndex     uint32
	TxPosition  uint16
}

// ToUint64 packs the three fields into the wire's 64-bit representation.
func (c ShortChannelID) ToUint64() uint64 {
	return ((uint64(c.BlockHeight) & 0xffffff) << 40) |
		((uint64(c.TxIndex) & 0xffffff) << 16) |
		uint64(c.TxPosition)
}

// NewShortChanIDFromInt unpacks the wire's 64-bit representation into its
// three constituent fields.
func NewShortChanIDFromInt(id uint64) ShortChannelID {
	return ShortChannelID{
		BlockHeight: uint32(id >> 40),
		TxIndex:     uint32(id>>16) & 0xffffff,
		TxPosition:  uint16(id),
	}
}

func (c ShortChannelID) String() string {
	return fmt.Sprintf("%dx%dx%d", c.BlockHeight, c.TxIndex, c.TxPosition)
}
