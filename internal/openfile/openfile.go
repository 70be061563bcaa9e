// Package openfile implements the in-memory open-file view (C4) over
// a header: positional read/write with byte-granular sector I/O and
// no dirty buffering beyond a single sector, following the same
// fetch-patch-writeback shape as the teacher's block manager
// (internal/filesystem/managers/blockmanager in the source repo),
// generalized from that package's linear per-inode block array to
// header.Header's pointer-tree ByteToSector lookup.
package openfile

import (
	"simfs/internal/disk"
	"simfs/internal/header"
)

// OpenFile is a header plus a cursor. Its identity for the purposes
// of the open-file table (C6) is its header's sector.
type OpenFile struct {
	header *header.Header
	disk   *disk.Disk
	pos    uint32
}

// Open wraps h for positional and cursor-relative I/O over d.
func Open(h *header.Header, d *disk.Disk) *OpenFile {
	return &OpenFile{header: h, disk: d}
}

func (f *OpenFile) Sector() uint32 { return f.header.Sector() }
func (f *OpenFile) Length() uint32 { return f.header.FileLength() }
func (f *OpenFile) Seek(pos uint32) {
	f.pos = pos
}

// ReadAt copies min(len(buf), length-pos) bytes starting at pos into
// buf and returns how many were read. Reading at or past end of file
// returns 0, nil.
func (f *OpenFile) ReadAt(buf []byte, pos uint32) (int, error) {
	length := f.header.FileLength()
	if pos >= length {
		return 0, nil
	}
	want := uint32(len(buf))
	if pos+want > length {
		want = length - pos
	}
	sectorSize := f.disk.SectorSize()
	sectorBuf := make([]byte, sectorSize)
	read := uint32(0)
	for read < want {
		offset := pos + read
		sector, err := f.header.ByteToSector(offset)
		if err != nil {
			return int(read), err
		}
		if err := f.disk.ReadSector(sector, sectorBuf); err != nil {
			return int(read), err
		}
		sectorOff := offset % sectorSize
		chunk := minU32(want-read, sectorSize-sectorOff)
		copy(buf[read:read+chunk], sectorBuf[sectorOff:sectorOff+chunk])
		read += chunk
	}
	return int(read), nil
}

// WriteAt patches min(len(buf), length-pos) bytes from buf into the
// file starting at pos, fetching and rewriting each sector it
// touches. Files are fixed-size: writes past end of file are silently
// truncated to what fits, never extending the file.
func (f *OpenFile) WriteAt(buf []byte, pos uint32) (int, error) {
	length := f.header.FileLength()
	if pos >= length {
		return 0, nil
	}
	want := uint32(len(buf))
	if pos+want > length {
		want = length - pos
	}
	sectorSize := f.disk.SectorSize()
	sectorBuf := make([]byte, sectorSize)
	written := uint32(0)
	for written < want {
		offset := pos + written
		sector, err := f.header.ByteToSector(offset)
		if err != nil {
			return int(written), err
		}
		if err := f.disk.ReadSector(sector, sectorBuf); err != nil {
			return int(written), err
		}
		sectorOff := offset % sectorSize
		chunk := minU32(want-written, sectorSize-sectorOff)
		copy(sectorBuf[sectorOff:sectorOff+chunk], buf[written:written+chunk])
		if err := f.disk.WriteSector(sector, sectorBuf); err != nil {
			return int(written), err
		}
		written += chunk
	}
	return int(written), nil
}

// Read reads from and advances the internal cursor by the number of
// bytes actually returned (spec.md §9 resolves the source's
// inconsistency on this point in favor of bytes-returned).
func (f *OpenFile) Read(buf []byte) (int, error) {
	n, err := f.ReadAt(buf, f.pos)
	f.pos += uint32(n)
	return n, err
}

// Write writes at and advances the internal cursor by the number of
// bytes actually written.
func (f *OpenFile) Write(buf []byte) (int, error) {
	n, err := f.WriteAt(buf, f.pos)
	f.pos += uint32(n)
	return n, err
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
