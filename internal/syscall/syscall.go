// Package syscall is the thin user-program-facing surface (C7) over
// the file system orchestrator, modeled on
// original_source/HW1/.../userprog/ksyscall.h's SysCreate/SysOpen/
// SysRead/SysWrite/SysClose/SysHalt/SysPrintInt shape: each call
// reduces errors to a single int code instead of a Go error, the way
// a syscall trap boundary would.
package syscall

import (
	"errors"
	"fmt"

	"simfs/internal/errs"
	"simfs/internal/filesystem"
)

// Result codes mirrored from original_source/HW1's convention: 1 for
// success, 0 (or a negative count) for failure.
const (
	Success = 1
	Failure = 0
)

// Syscalls wraps a *filesystem.FileSystem with the fixed-return-code
// contract a user program's trap handler expects.
type Syscalls struct {
	fs *filesystem.FileSystem
}

// New binds a syscall surface to fs.
func New(fs *filesystem.FileSystem) *Syscalls {
	return &Syscalls{fs: fs}
}

// Create implements SysCreate: make a file of initialSize bytes at
// name, returning 1 on success or 0 on failure.
func (s *Syscalls) Create(name string, initialSize int) int {
	if err := s.fs.Create(name, uint32(initialSize), false); err != nil {
		return Failure
	}
	return Success
}

// CreateDirectory implements the directory-creation analogue of
// SysCreate this file system adds beyond the original syscall set.
func (s *Syscalls) CreateDirectory(name string) int {
	if err := s.fs.Create(name, 0, true); err != nil {
		return Failure
	}
	return Success
}

// Open implements SysOpen: returns the OpenFileId, or -1 on failure.
func (s *Syscalls) Open(name string) int {
	id, err := s.fs.Open(name)
	if err != nil {
		return -1
	}
	return int(id)
}

// Read implements SysRead: returns the number of bytes actually read,
// which may be less than size, or -1 on a bad id.
func (s *Syscalls) Read(buf []byte, size int, id int) int {
	n, err := s.fs.Read(uint32(id), buf[:size])
	if err != nil && errors.Is(err, errs.ErrBadId) {
		return -1
	}
	return n
}

// Write implements SysWrite: returns the number of bytes actually
// written, or -1 on a bad id.
func (s *Syscalls) Write(buf []byte, size int, id int) int {
	n, err := s.fs.Write(uint32(id), buf[:size])
	if err != nil && errors.Is(err, errs.ErrBadId) {
		return -1
	}
	return n
}

// Close implements SysClose: returns 1 on success, 0 if id was not
// open.
func (s *Syscalls) Close(id int) int {
	if err := s.fs.CloseFile(uint32(id)); err != nil {
		return Failure
	}
	return Success
}

// Remove deletes the file or directory named name.
func (s *Syscalls) Remove(name string) int {
	if err := s.fs.Remove(name); err != nil {
		return Failure
	}
	return Success
}

// PrintInt implements SysPrintInt: prints i to the console the way
// original_source/HW1's SysPrintInt wraps a raw console Write.
func (s *Syscalls) PrintInt(i int32) {
	fmt.Println(i)
}

// Halt implements SysHalt, closing the mounted file system as the
// original Halt() calls interrupt->Halt() to stop the machine.
func (s *Syscalls) Halt() error {
	return s.fs.Close()
}
