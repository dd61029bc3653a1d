package aoe

import (
	"encoding/binary"
	"net"
	"time"
)

// An ATACmdStatus is an ATA command opcode in a request, or an ATA
// status code in a reply.
type ATACmdStatus uint8

const (
	// ATAErrAbort is set in ErrFeature when an ATA command is aborted.
	ATAErrAbort uint8 = 0x04

	ATACmdStatusErrStatus   ATACmdStatus = 0x01
	ATACmdStatusReadyStatus ATACmdStatus = 0x40

	ATACmdStatusRead28Bit  ATACmdStatus = 0x20
	ATACmdStatusRead48Bit  ATACmdStatus = 0x24
	ATACmdStatusWrite28Bit ATACmdStatus = 0x30
	ATACmdStatusWrite48Bit ATACmdStatus = 0x34
	ATACmdStatusIdentify   ATACmdStatus = 0xec
)

// abortReply builds the standard ATA ABORT reply used whenever an ATA
// command cannot be satisfied: an oversized sector count, an unknown
// opcode, or a backing-store failure.
func abortReply() *ATAArg {
	return &ATAArg{
		CmdStatus:  ATACmdStatus(uint8(ATACmdStatusErrStatus) | uint8(ATACmdStatusReadyStatus)),
		ErrFeature: ATAErrAbort,
	}
}

// serveATA builds the reply Arg for an ATA request against v's
// backing store, per the target's ATA handler.
//
// drop reports that the request must be silently discarded rather
// than answered: the only such case is an ACL-denied IDENTIFY.
// aoeErr is non-zero only for an unrecognized ATA opcode, which is
// also an AoE-level BADARG, not merely an ATA-level abort.
func serveATA(v *Volume, source net.HardwareAddr, req *ATAArg) (reply *ATAArg, aoeErr Error, drop bool) {
	// Start from a copy of the request sub-header, cleared of its
	// error/feature byte and marked ready, per spec §4.7.1.
	out := &ATAArg{
		FlagLBA48Extended: req.FlagLBA48Extended,
		SectorCount:       req.SectorCount,
		LBA:               req.LBA,
		CmdStatus:         ATACmdStatusReadyStatus,
	}

	if req.SectorCount > 2 {
		return abortReply(), 0, false
	}

	offset := int64(calculateLBA(req.LBA, req.FlagLBA48Extended)) * sectorSize
	n := int(req.SectorCount) * sectorSize

	switch req.CmdStatus {
	case ATACmdStatusRead28Bit, ATACmdStatusRead48Bit:
		b := make([]byte, n)
		start := time.Now()
		read, err := v.store.ReadAt(b, offset)
		v.observeIO(OpRead, time.Since(start))
		if err != nil && read == 0 {
			return abortReply(), 0, false
		}
		// a short read is zero-padded to the requested length; b is
		// already zeroed past whatever ReadAt filled in.
		out.Data = b
		return out, 0, false

	case ATACmdStatusWrite28Bit, ATACmdStatusWrite48Bit:
		if len(req.Data) != n {
			return abortReply(), 0, false
		}
		start := time.Now()
		_, err := v.store.WriteAt(req.Data, offset)
		v.observeIO(OpWrite, time.Since(start))
		if err != nil {
			return abortReply(), 0, false
		}
		return out, 0, false

	case ATACmdStatusIdentify:
		if !v.ACL.Check(source) {
			return nil, 0, true
		}
		out.Data = identify(v)
		return out, 0, false

	default:
		return abortReply(), ErrorBadArgumentParameter, false
	}
}

// calculateLBA decodes a 6-byte little-endian LBA array into a 64-bit
// sector address, masked to 48 or 28 bits depending on is48Bit.
func calculateLBA(lba [6]uint8, is48Bit bool) uint64 {
	b := [8]byte{lba[0], lba[1], lba[2], lba[3], lba[4], lba[5], 0, 0}
	v := binary.LittleEndian.Uint64(b[:])

	if is48Bit {
		v &= 0x0000ffffffffffff
	} else {
		v &= 0x0fffffff
	}
	return v
}

// identify builds the 512-byte ATA IDENTIFY payload for v, per spec
// §4.7.2: legacy little-endian ATA identification fields overlaid on
// an otherwise zeroed block, at the standard ATA IDENTIFY DEVICE word
// offsets (byte offset = 2 * word index).
func identify(v *Volume) []byte {
	b := make([]byte, 512)

	putString(b[20:39], v.Name)       // serial number, words 10-19 (<=19 bytes used)
	putString(b[54:94], "123456789")  // model, words 27-46

	size := v.SizeSectors()

	binary.LittleEndian.PutUint16(b[108:110], uint16((size/256)/64)) // cur_cyls, word 54
	binary.LittleEndian.PutUint16(b[110:112], 255)                   // cur_heads, word 55
	binary.LittleEndian.PutUint16(b[112:114], 64)                    // cur_sectors, word 56

	binary.LittleEndian.PutUint16(b[98:100], 1<<1) // capability, word 49: LBA supported

	lbaCapacity := size
	if lbaCapacity > 0x0fffffff {
		lbaCapacity = 0x0fffffff
	}
	binary.LittleEndian.PutUint32(b[120:124], uint32(lbaCapacity)) // lba_capacity, words 60-61

	binary.LittleEndian.PutUint16(b[166:168], 1<<10) // command_set_2, word 83: LBA48 supported
	binary.LittleEndian.PutUint16(b[172:174], 1<<10) // cfs_enable_2, word 86: LBA48 enabled

	binary.LittleEndian.PutUint64(b[200:208], size) // lba_capacity_2, words 100-103

	return b
}

// putString copies s into dst, left-justified and zero-padded, never
// writing past len(dst).
func putString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}
