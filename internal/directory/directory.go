// Package directory implements the directory service (C5): a
// fixed-capacity table of (name, sector, type) entries stored as an
// ordinary file. The teacher's directory package
// (internal/filesystem/directory in the source repo) lays out
// variable-length ext2-style records keyed by a Go map; this system's
// directories are instead the fixed D-entry array spec.md §3 and §6
// specify bit-exactly, with no "." or ".." entries, since path
// resolution here always walks down from the root rather than
// tracking a persistent current directory.
package directory

import (
	"encoding/binary"
	"fmt"
	"strings"

	"simfs/internal/bitmap"
	"simfs/internal/blockio"
	"simfs/internal/disk"
	"simfs/internal/errs"
	"simfs/internal/header"
	"simfs/internal/openfile"
	"simfs/internal/pointer"
)

// NameLen is L, the maximum entry name length.
const NameLen = 9

// Capacity is D, the fixed number of entries per directory.
const Capacity = 64

// entrySize is sizeof({inUse:u32, type:u32, sector:u32, name:u8[L+1]})
// with no inter-field padding, per spec.md §6.
const entrySize = 4 + 4 + 4 + (NameLen + 1)

// EntrySize is the on-disk size of one directory record; the file
// system uses Capacity*EntrySize() as the size of every directory
// file it creates.
func EntrySize() uint32 { return entrySize }

// EntryType tags a directory record as naming a file or a
// subdirectory.
type EntryType uint32

const (
	TypeFile EntryType = 0
	TypeDir  EntryType = 1
)

type record struct {
	inUse  bool
	typ    EntryType
	sector uint32
	name   string
}

// Directory is the in-memory image of one directory file's contents.
type Directory struct {
	entries [Capacity]record
}

// New returns an empty directory (all entries unused).
func New() *Directory {
	return &Directory{}
}

// Env bundles what RemoveRecursive and ListRecursive need to open the
// header and directory of a child entry: the disk they live on and
// the geometry their headers were built with.
type Env struct {
	Disk *disk.Disk
	Geom pointer.Geometry
}

func (e Env) openDirectory(sector uint32) (*Directory, *header.Header, error) {
	h := header.New(sector, e.Geom)
	if err := h.FetchFrom(e.Disk, sector); err != nil {
		return nil, nil, err
	}
	of := openfile.Open(h, e.Disk)
	child := New()
	if err := child.FetchFrom(of); err != nil {
		return nil, nil, err
	}
	return child, h, nil
}

// FetchFrom loads the fixed entry table from offset 0 of f.
func (d *Directory) FetchFrom(f blockio.ByteReaderWriterAt) error {
	buf := make([]byte, entrySize*Capacity)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return err
	}
	for i := 0; i < Capacity; i++ {
		off := i * entrySize
		inUse := binary.LittleEndian.Uint32(buf[off : off+4])
		typ := binary.LittleEndian.Uint32(buf[off+4 : off+8])
		sector := binary.LittleEndian.Uint32(buf[off+8 : off+12])
		nameBytes := buf[off+12 : off+12+NameLen+1]
		nameLen := 0
		for nameLen < len(nameBytes) && nameBytes[nameLen] != 0 {
			nameLen++
		}
		d.entries[i] = record{
			inUse:  inUse != 0,
			typ:    EntryType(typ),
			sector: sector,
			name:   string(nameBytes[:nameLen]),
		}
	}
	return nil
}

// WriteBack persists the fixed entry table to offset 0 of f.
func (d *Directory) WriteBack(f blockio.ByteReaderWriterAt) error {
	buf := make([]byte, entrySize*Capacity)
	for i, e := range d.entries {
		off := i * entrySize
		inUse := uint32(0)
		if e.inUse {
			inUse = 1
		}
		binary.LittleEndian.PutUint32(buf[off:off+4], inUse)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(e.typ))
		binary.LittleEndian.PutUint32(buf[off+8:off+12], e.sector)
		copy(buf[off+12:off+12+NameLen], e.name)
	}
	_, err := f.WriteAt(buf, 0)
	return err
}

// Find returns the header sector of the in-use entry named name.
func (d *Directory) Find(name string) (uint32, bool) {
	for _, e := range d.entries {
		if e.inUse && e.name == name {
			return e.sector, true
		}
	}
	return 0, false
}

// IsDirectory reports whether the in-use entry named name is a
// directory; ok is false if no such entry exists.
func (d *Directory) IsDirectory(name string) (isDir bool, ok bool) {
	for _, e := range d.entries {
		if e.inUse && e.name == name {
			return e.typ == TypeDir, true
		}
	}
	return false, false
}

// Add inserts a new entry into the first free slot.
func (d *Directory) Add(name string, sector uint32, typ EntryType) error {
	if len(name) == 0 || len(name) > NameLen {
		return errs.ErrInvalid
	}
	if _, ok := d.Find(name); ok {
		return errs.ErrDuplicateName
	}
	for i := range d.entries {
		if !d.entries[i].inUse {
			d.entries[i] = record{inUse: true, typ: typ, sector: sector, name: name}
			return nil
		}
	}
	return errs.ErrDirectoryFull
}

// Remove marks the entry named name unused. It does not reclaim any
// header or data blocks — that is the file system's job.
func (d *Directory) Remove(name string) error {
	for i := range d.entries {
		if d.entries[i].inUse && d.entries[i].name == name {
			d.entries[i] = record{}
			return nil
		}
	}
	return errs.ErrNotFound
}

// List renders one line per in-use entry: "[index] name T".
func (d *Directory) List() []string {
	var lines []string
	for i, e := range d.entries {
		if !e.inUse {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%d] %s %s", i, e.name, typeLetter(e.typ)))
	}
	return lines
}

// ListRecursive appends List's lines, indented, and for every
// directory entry recurses into it at indent+2.
func (d *Directory) ListRecursive(env Env, indent int, out *[]string) error {
	prefix := strings.Repeat(" ", indent)
	for i, e := range d.entries {
		if !e.inUse {
			continue
		}
		*out = append(*out, fmt.Sprintf("%s[%d] %s %s", prefix, i, e.name, typeLetter(e.typ)))
		if e.typ == TypeDir {
			child, _, err := env.openDirectory(e.sector)
			if err != nil {
				return err
			}
			if err := child.ListRecursive(env, indent+2, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveRecursive descends into every directory entry and removes it
// first, then deallocates every entry's header blocks and header
// sector via bm and marks it unused. After this call the directory
// has no in-use entries left.
func (d *Directory) RemoveRecursive(env Env, bm *bitmap.Bitmap) error {
	for i := range d.entries {
		e := &d.entries[i]
		if !e.inUse {
			continue
		}
		h := header.New(e.sector, env.Geom)
		if err := h.FetchFrom(env.Disk, e.sector); err != nil {
			return err
		}
		if e.typ == TypeDir {
			of := openfile.Open(h, env.Disk)
			child := New()
			if err := child.FetchFrom(of); err != nil {
				return err
			}
			if err := child.RemoveRecursive(env, bm); err != nil {
				return err
			}
		}
		h.Deallocate(bm)
		_ = bm.Clear(e.sector)
		*e = record{}
	}
	return nil
}

func typeLetter(t EntryType) string {
	if t == TypeDir {
		return "D"
	}
	return "F"
}
