// package uf2 reads and writes the [UF2] flashing format used by the
// RP2040 mass-storage bootloader.
//
// [UF2]: https://github.com/microsoft/uf2
package uf2

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

type FamilyID uint32

const FamilyRP2040 FamilyID = 0xe48bff56

const (
	blockSize  = 512
	headerSize = 32
	footerSize = 4
	magic1     = 0x0A324655
	magic2     = 0x9E5D5157
	magicEnd   = 0x0AB16F30

	payloadSize = 256

	flagNotMainFlash  = 0x00000001
	flagFamilyID      = 0x00002000
	flagFileContainer = 0x00001000
	flagMD5Checksum   = 0x00004000
	flagExtTags       = 0x00008000
)

type blockHeader struct {
	b [headerSize]byte
}

// Encode writes data as UF2 blocks targeting addr, in the
// 256-bytes-per-block layout the bootloader expects.
func Encode(w io.Writer, family FamilyID, addr uint32, data []byte) error {
	if addr%payloadSize != 0 {
		return errors.New("uf2: target address not block aligned")
	}
	nblocks := (len(data) + payloadSize - 1) / payloadSize
	var block [blockSize]byte
	var h blockHeader
	h.setHeader(0, magic1)
	h.setHeader(4, magic2)
	h.SetFlags(flagFamilyID)
	h.SetPayloadSize(payloadSize)
	h.SetNumBlocks(uint32(nblocks))
	h.SetFamilyID(uint32(family))
	for i := 0; i < nblocks; i++ {
		h.SetTargetAddr(addr + uint32(i)*payloadSize)
		h.SetBlockNo(uint32(i))
		copy(block[:headerSize], h.b[:])
		payload := block[headerSize : headerSize+payloadSize]
		for j := range payload {
			payload[j] = 0
		}
		copy(payload, data[i*payloadSize:])
		binary.LittleEndian.PutUint32(block[blockSize-footerSize:], magicEnd)
		if _, err := w.Write(block[:]); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads back a UF2 image for one family, returning the target
// address of the first block and the contiguous payload.
func Decode(r io.Reader, family FamilyID) (uint32, []byte, error) {
	var (
		start uint32
		next  uint32
		data  []byte
		block [blockSize]byte
	)
	for {
		if _, err := io.ReadFull(r, block[:]); err != nil {
			if err == io.EOF {
				break
			}
			return 0, nil, err
		}
		var h blockHeader
		copy(h.b[:], block[:headerSize])
		if h.getHeader(0) != magic1 || h.getHeader(4) != magic2 {
			return 0, nil, errors.New("uf2: invalid header magic")
		}
		if binary.LittleEndian.Uint32(block[blockSize-footerSize:]) != magicEnd {
			return 0, nil, errors.New("uf2: invalid footer magic")
		}
		flags := h.Flags()
		if flags&flagFamilyID == 0 || h.FamilyID() != uint32(family) {
			continue
		}
		if flags &^= flagFamilyID; flags != 0 {
			return 0, nil, fmt.Errorf("uf2: unsupported flags: %x", flags)
		}
		sz := h.PayloadSize()
		if sz > payloadSize {
			return 0, nil, errors.New("uf2: oversized payload")
		}
		addr := h.TargetAddr()
		if data == nil {
			start = addr
		} else if addr != next {
			return 0, nil, errors.New("uf2: non-contiguous data")
		}
		next = addr + sz
		data = append(data, block[headerSize:headerSize+sz]...)
	}
	if data == nil {
		return 0, nil, errors.New("uf2: no blocks for family")
	}
	return start, data, nil
}

func (b *blockHeader) Flags() uint32           { return b.getHeader(8) }
func (b *blockHeader) SetFlags(f uint32)       { b.setHeader(8, f) }
func (b *blockHeader) TargetAddr() uint32      { return b.getHeader(12) }
func (b *blockHeader) SetTargetAddr(a uint32)  { b.setHeader(12, a) }
func (b *blockHeader) PayloadSize() uint32     { return b.getHeader(16) }
func (b *blockHeader) SetPayloadSize(s uint32) { b.setHeader(16, s) }
func (b *blockHeader) BlockNo() uint32         { return b.getHeader(20) }
func (b *blockHeader) SetBlockNo(n uint32)     { b.setHeader(20, n) }
func (b *blockHeader) NumBlocks() uint32       { return b.getHeader(24) }
func (b *blockHeader) SetNumBlocks(n uint32)   { b.setHeader(24, n) }
func (b *blockHeader) FamilyID() uint32        { return b.getHeader(28) }
func (b *blockHeader) SetFamilyID(f uint32)    { b.setHeader(28, f) }

func (b *blockHeader) getHeader(off int) uint32 {
	return binary.LittleEndian.Uint32(b.b[off : off+4])
}

func (b *blockHeader) setHeader(off int, v uint32) {
	binary.LittleEndian.PutUint32(b.b[off:off+4], v)
}
