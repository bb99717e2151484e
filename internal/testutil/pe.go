// SPDX-License-Identifier: MPL-2.0

package testutil

import "encoding/binary"

// Layout of images produced by BuildPE.
const (
	peHeaderOffset   = 0x80
	peSectionVA      = 0x2000
	peSectionRaw     = 0x400
	peSectionSize    = 0x1000
	peImportDescSize = 20
)

// PEImage describes a synthetic PE file. The zero value is a valid PE32+
// image with an empty import directory.
type PEImage struct {
	// PE32 selects the 32-bit optional header layout.
	PE32 bool
	// Imports are written as import descriptors in order.
	Imports []string
	// BadDOSMagic replaces "MZ" with "ZM".
	BadDOSMagic bool
	// BadSignature corrupts the "PE\0\0" signature.
	BadSignature bool
	// NoImportDirectory zeroes the import directory RVA.
	NoImportDirectory bool
	// DetachedSection moves the only section so no RVA maps into it.
	DetachedSection bool
	// Truncate cuts the image to this many bytes when non-zero.
	Truncate int
}

// BuildPE renders img as a byte slice laid out as
//
//	0x000 DOS header ("MZ", e_lfanew = 0x80)
//	0x080 "PE\0\0", COFF header, optional header, one ".idata" section header
//	0x400 import descriptors followed by the NUL-terminated DLL names
func BuildPE(img PEImage) []byte {
	buf := make([]byte, peSectionRaw+peSectionSize)
	le := binary.LittleEndian

	if img.BadDOSMagic {
		copy(buf, "ZM")
	} else {
		copy(buf, "MZ")
	}
	le.PutUint32(buf[0x3C:], peHeaderOffset)

	if img.BadSignature {
		copy(buf[peHeaderOffset:], "PX\x00\x00")
	} else {
		copy(buf[peHeaderOffset:], "PE\x00\x00")
	}

	coff := peHeaderOffset + 4
	machine, optMagic, dataDirs := uint16(0x8664), uint16(0x20B), 112
	if img.PE32 {
		machine, optMagic, dataDirs = 0x14C, 0x10B, 96
	}
	optSize := dataDirs + 16*8
	le.PutUint16(buf[coff:], machine)
	le.PutUint16(buf[coff+2:], 1)
	le.PutUint16(buf[coff+16:], uint16(optSize))

	opt := coff + 20
	le.PutUint16(buf[opt:], optMagic)
	le.PutUint32(buf[opt+dataDirs-4:], 16)

	descCount := len(img.Imports) + 1
	if !img.NoImportDirectory {
		le.PutUint32(buf[opt+dataDirs+8:], peSectionVA)
		le.PutUint32(buf[opt+dataDirs+12:], uint32(descCount*peImportDescSize))
	}

	section := opt + optSize
	copy(buf[section:], ".idata")
	va := uint32(peSectionVA)
	if img.DetachedSection {
		va = 0x9000
	}
	le.PutUint32(buf[section+8:], peSectionSize)
	le.PutUint32(buf[section+12:], va)
	le.PutUint32(buf[section+16:], peSectionSize)
	le.PutUint32(buf[section+20:], peSectionRaw)

	nameOff := peSectionRaw + descCount*peImportDescSize
	for i, name := range img.Imports {
		desc := peSectionRaw + i*peImportDescSize
		le.PutUint32(buf[desc+12:], uint32(peSectionVA+nameOff-peSectionRaw))
		copy(buf[nameOff:], name)
		nameOff += len(name) + 1
	}

	if img.Truncate > 0 && img.Truncate < len(buf) {
		buf = buf[:img.Truncate]
	}
	return buf
}
