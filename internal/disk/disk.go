// Package disk is the simulated block device the file system core
// assumes beneath it. spec.md §6 names ReadSector/WriteSector as the
// external collaborator's contract without mandating an
// implementation; this one backs the device with a single flat host
// file, the same way the teacher backs its file system with one
// os.File opened for the lifetime of the mount.
package disk

import (
	"os"
	"simfs/internal/errs"
)

// Disk is a fixed-geometry sector device backed by a host file.
type Disk struct {
	file        *os.File
	sectorSize  uint32
	sectorCount uint32
}

// Create makes a new, zero-filled disk image at path with the given
// geometry, truncating anything already there. The harness calls it
// before filesystem.Format when formatting a fresh image.
func Create(path string, sectorSize, sectorCount uint32) (*Disk, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := file.Truncate(int64(sectorSize) * int64(sectorCount)); err != nil {
		file.Close()
		return nil, err
	}
	return &Disk{file: file, sectorSize: sectorSize, sectorCount: sectorCount}, nil
}

// Open attaches to an existing disk image. The caller supplies the
// geometry it was formatted with; nothing on disk records it.
func Open(path string, sectorSize, sectorCount uint32) (*Disk, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &Disk{file: file, sectorSize: sectorSize, sectorCount: sectorCount}, nil
}

func (d *Disk) SectorSize() uint32  { return d.sectorSize }
func (d *Disk) SectorCount() uint32 { return d.sectorCount }

// ReadSector reads exactly one sector into buf, which must be at
// least SectorSize() bytes.
func (d *Disk) ReadSector(i uint32, buf []byte) error {
	if i >= d.sectorCount {
		return errs.ErrInvalid
	}
	_, err := d.file.ReadAt(buf[:d.sectorSize], int64(i)*int64(d.sectorSize))
	return err
}

// WriteSector writes exactly one sector from buf, which must be at
// least SectorSize() bytes.
func (d *Disk) WriteSector(i uint32, buf []byte) error {
	if i >= d.sectorCount {
		return errs.ErrInvalid
	}
	_, err := d.file.WriteAt(buf[:d.sectorSize], int64(i)*int64(d.sectorSize))
	return err
}

func (d *Disk) Close() error {
	return d.file.Close()
}
