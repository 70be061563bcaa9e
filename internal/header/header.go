// Package header implements the file header (C3): the one-sector
// root of a pointer-tree, binding a file's byte length to a concrete
// level and set of top-level pointers. The teacher's inode
// (internal/filesystem/inode in the source repo) is the direct
// analogue — a fixed-layout struct with WriteAt/ReadAt round-tripping
// through encoding/binary — generalized here from a flat 12-entry
// direct-block array to the four-level indirection tree spec.md §3
// requires so a header can address files far larger than one sector.
package header

import (
	"encoding/binary"

	"simfs/internal/bitmap"
	"simfs/internal/disk"
	"simfs/internal/errs"
	"simfs/internal/pointer"
)

// Header is the on-disk root of one file's pointer tree.
type Header struct {
	sector     uint32
	geom       pointer.Geometry
	numBytes   uint32
	numPointer uint32
	level      int
	pointers   []pointer.Node
}

// New returns a header bound to sector but with no allocated content;
// call Allocate to build a fresh file or FetchFrom to load an
// existing one.
func New(sector uint32, geom pointer.Geometry) *Header {
	return &Header{sector: sector, geom: geom}
}

func (h *Header) Sector() uint32     { return h.sector }
func (h *Header) FileLength() uint32 { return h.numBytes }
func (h *Header) Level() int         { return h.level }

// DeriveLevel picks the smallest level in {1,2,3,4} whose top-level
// pointers can jointly address fileSize bytes. Allocate and FetchFrom
// both call this on the same numBytes, which is what spec.md §8's
// level-derivation-determinism property tests.
func DeriveLevel(geom pointer.Geometry, fileSize uint32) (int, error) {
	h := uint64(geom.HeaderPointerCount())
	for level := 1; level <= 4; level++ {
		if geom.Capacity(level)*h >= uint64(fileSize) {
			return level, nil
		}
	}
	return 0, errs.ErrTooLarge
}

// Allocate builds a fresh pointer tree addressing exactly fileSize
// bytes. It precomputes the total sector count the whole subtree will
// need and checks it against the bitmap's free count before mutating
// anything (spec.md §4.3 step 4's recommended strategy), so a partial
// child failure — and the unwind loop below — should never be
// reachable outside a race that single-threaded access rules out.
func (h *Header) Allocate(bm *bitmap.Bitmap, fileSize uint32) error {
	level, err := DeriveLevel(h.geom, fileSize)
	if err != nil {
		return err
	}
	total := ceilDiv(fileSize, h.geom.SectorSize)
	perTop := h.geom.SectorsPerTopPointer(level)
	numPointer := ceilDiv(total, perTop)
	if numPointer > h.geom.HeaderPointerCount() {
		return errs.ErrTooLarge
	}

	need := uint32(0)
	remaining := total
	for i := uint32(0); i < numPointer; i++ {
		share := minU32(remaining, perTop)
		need += pointer.RequiredSectors(h.geom, level, share)
		remaining -= share
	}
	if bm.NumClear() < need {
		return errs.ErrNoSpace
	}

	pointers := make([]pointer.Node, 0, numPointer)
	remaining = total
	for i := uint32(0); i < numPointer; i++ {
		share := minU32(remaining, perTop)
		node := pointer.NewNode(h.geom, level)
		if err := node.Allocate(bm, share); err != nil {
			for _, p := range pointers {
				p.Deallocate(bm)
			}
			return err
		}
		pointers = append(pointers, node)
		remaining -= share
	}

	h.numBytes = fileSize
	h.numPointer = numPointer
	h.level = level
	h.pointers = pointers
	return nil
}

// Deallocate frees every sector this header's pointer tree owns. It
// does not free the header's own sector — that is the caller's job,
// mirroring spec.md §4.3.
func (h *Header) Deallocate(bm *bitmap.Bitmap) {
	for _, p := range h.pointers {
		p.Deallocate(bm)
	}
}

// FetchFrom loads the header from sector, re-deriving level from the
// stored numBytes and recursively fetching every top-level pointer.
func (h *Header) FetchFrom(d *disk.Disk, sector uint32) error {
	buf := make([]byte, d.SectorSize())
	if err := d.ReadSector(sector, buf); err != nil {
		return err
	}
	h.sector = sector
	h.numBytes = binary.LittleEndian.Uint32(buf[0:4])
	h.numPointer = binary.LittleEndian.Uint32(buf[4:8])
	level, err := DeriveLevel(h.geom, h.numBytes)
	if err != nil {
		return err
	}
	h.level = level
	pointers := make([]pointer.Node, 0, h.numPointer)
	for i := uint32(0); i < h.numPointer; i++ {
		off := 8 + i*4
		ptrSector := binary.LittleEndian.Uint32(buf[off : off+4])
		node := pointer.NewNode(h.geom, level)
		if err := node.FetchFrom(d, ptrSector); err != nil {
			return err
		}
		pointers = append(pointers, node)
	}
	h.pointers = pointers
	return nil
}

// WriteBack serializes numBytes, numPointer and the top-level pointer
// sectors into exactly one sector, after first writing back every
// pointer subtree (indirect variants recurse to their own children in
// turn).
func (h *Header) WriteBack(d *disk.Disk) error {
	for _, p := range h.pointers {
		if err := p.WriteBack(d); err != nil {
			return err
		}
	}
	buf := make([]byte, d.SectorSize())
	binary.LittleEndian.PutUint32(buf[0:4], h.numBytes)
	binary.LittleEndian.PutUint32(buf[4:8], h.numPointer)
	hcount := h.geom.HeaderPointerCount()
	for i := uint32(0); i < hcount; i++ {
		off := 8 + i*4
		if i < h.numPointer {
			binary.LittleEndian.PutUint32(buf[off:off+4], h.pointers[i].Sector())
		} else {
			binary.LittleEndian.PutUint32(buf[off:off+4], 0xFFFFFFFF)
		}
	}
	return d.WriteSector(h.sector, buf)
}

// ByteToSector translates a byte offset into the physical data
// sector holding it.
func (h *Header) ByteToSector(offset uint32) (uint32, error) {
	if offset >= h.numBytes {
		return 0, errs.ErrInvalid
	}
	cap := h.geom.Capacity(h.level)
	top := uint32(uint64(offset) / cap)
	rest := uint32(uint64(offset) % cap)
	if top >= h.numPointer {
		return 0, errs.ErrInvalid
	}
	return h.pointers[top].ByteToSector(rest)
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
