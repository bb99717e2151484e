// SPDX-License-Identifier: MPL-2.0

package depscan

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// PE/COFF layout constants. Offsets are relative to the structure named in
// the constant.
const (
	dosMagic          = 0x5A4D // "MZ" read little-endian
	dosLfanewOffset   = 0x3C
	peSignature       = 0x00004550 // "PE\0\0"
	coffHeaderSize    = 20
	coffNumSections   = 2
	coffOptHeaderSize = 16

	optMagicPE32     = 0x10B
	optMagicPE32Plus = 0x20B

	// Data directories start 96 (PE32) or 112 (PE32+) bytes into the optional
	// header; NumberOfRvaAndSizes is the 4 bytes right before them.
	dataDirOffsetPE32     = 96
	dataDirOffsetPE32Plus = 112
	dataDirEntrySize      = 8
	importDirIndex        = 1

	sectionHeaderSize    = 40
	sectionVirtualSize   = 8
	sectionVirtualAddr   = 12
	sectionRawSize       = 16
	sectionRawPointer    = 20
	importDescriptorSize = 20
	importDescNameRVA    = 12

	maxSections          = 96 // PE loader limit
	maxImportDescriptors = 4096
	maxImportNameLength  = 512
)

type (
	// PEStrategy reads the import directory of a PE image.
	PEStrategy struct{}

	peSection struct {
		virtualAddress uint32
		virtualSize    uint32
		rawPointer     uint32
	}

	peReader struct {
		r io.ReaderAt
	}
)

// Name implements Strategy.
func (PEStrategy) Name() string { return "pe" }

// Scan implements Strategy. Only failing to open the file is an error;
// structural problems end the walk with whatever names were read.
func (PEStrategy) Scan(_ context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PE image: %w", err)
	}
	defer f.Close()

	return ParsePEImports(f), nil
}

// ParsePEImports returns the DLL names listed in the import directory of the
// PE image behind r, in descriptor order.
func ParsePEImports(r io.ReaderAt) []string {
	names := []string{}
	pr := peReader{r: r}

	if magic, ok := pr.u16(0); !ok || magic != dosMagic {
		return names
	}
	lfanew, ok := pr.u32(dosLfanewOffset)
	if !ok {
		return names
	}
	peOff := int64(lfanew)
	if sig, ok := pr.u32(peOff); !ok || sig != peSignature {
		return names
	}

	coff := peOff + 4
	numSections, ok := pr.u16(coff + coffNumSections)
	if !ok || numSections == 0 || numSections > maxSections {
		return names
	}
	optSize, ok := pr.u16(coff + coffOptHeaderSize)
	if !ok {
		return names
	}

	opt := coff + coffHeaderSize
	optMagic, ok := pr.u16(opt)
	if !ok {
		return names
	}
	var dataDirs int64
	switch optMagic {
	case optMagicPE32:
		dataDirs = dataDirOffsetPE32
	case optMagicPE32Plus:
		dataDirs = dataDirOffsetPE32Plus
	default:
		return names
	}
	importEntry := dataDirs + importDirIndex*dataDirEntrySize
	if int64(optSize) < importEntry+dataDirEntrySize {
		return names
	}
	if count, ok := pr.u32(opt + dataDirs - 4); !ok || count <= importDirIndex {
		return names
	}
	importRVA, ok := pr.u32(opt + importEntry)
	if !ok || importRVA == 0 {
		return names
	}

	sections, ok := pr.sections(opt+int64(optSize), int(numSections))
	if !ok {
		return names
	}
	descOff, ok := rvaToOffset(sections, importRVA)
	if !ok {
		return names
	}

	for i := range maxImportDescriptors {
		nameRVA, ok := pr.u32(descOff + int64(i)*importDescriptorSize + importDescNameRVA)
		if !ok || nameRVA == 0 {
			break
		}
		nameOff, ok := rvaToOffset(sections, nameRVA)
		if !ok {
			break
		}
		name, ok := pr.cString(nameOff)
		if !ok {
			break
		}
		names = append(names, name)
	}

	return names
}

// rvaToOffset translates a relative virtual address to a file offset using
// the section whose virtual range contains it.
func rvaToOffset(sections []peSection, rva uint32) (int64, bool) {
	for _, s := range sections {
		if rva >= s.virtualAddress && uint64(rva) < uint64(s.virtualAddress)+uint64(s.virtualSize) {
			return int64(rva-s.virtualAddress) + int64(s.rawPointer), true
		}
	}
	return 0, false
}

func (p peReader) sections(off int64, n int) ([]peSection, bool) {
	buf := make([]byte, n*sectionHeaderSize)
	if _, err := p.r.ReadAt(buf, off); err != nil {
		return nil, false
	}
	sections := make([]peSection, n)
	for i := range sections {
		h := buf[i*sectionHeaderSize : (i+1)*sectionHeaderSize]
		s := peSection{
			virtualSize:    binary.LittleEndian.Uint32(h[sectionVirtualSize:]),
			virtualAddress: binary.LittleEndian.Uint32(h[sectionVirtualAddr:]),
			rawPointer:     binary.LittleEndian.Uint32(h[sectionRawPointer:]),
		}
		// Object files and some linkers leave VirtualSize zero.
		if s.virtualSize == 0 {
			s.virtualSize = binary.LittleEndian.Uint32(h[sectionRawSize:])
		}
		sections[i] = s
	}
	return sections, true
}

func (p peReader) u16(off int64) (uint16, bool) {
	var b [2]byte
	if off < 0 {
		return 0, false
	}
	if _, err := p.r.ReadAt(b[:], off); err != nil {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[:]), true
}

func (p peReader) u32(off int64) (uint32, bool) {
	var b [4]byte
	if off < 0 {
		return 0, false
	}
	if _, err := p.r.ReadAt(b[:], off); err != nil {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[:]), true
}

// cString reads a NUL-terminated ASCII string. A string that runs into EOF
// or past maxImportNameLength without a terminator is rejected.
func (p peReader) cString(off int64) (string, bool) {
	buf := make([]byte, maxImportNameLength)
	n, err := p.r.ReadAt(buf, off)
	if n == 0 && err != nil {
		return "", false
	}
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			if i == 0 {
				return "", false
			}
			return string(buf[:i]), true
		}
	}
	return "", false
}
