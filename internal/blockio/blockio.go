// Package blockio declares the minimal interface a file-like byte
// stream must satisfy for the bitmap and directory to round-trip
// themselves through it. An *openfile.OpenFile satisfies it without
// importing this package, which is what keeps bitmap and directory
// from ever depending on openfile (and, through it, header and
// pointer) directly.
package blockio

// ByteReaderWriterAt is a byte-addressed file: it reads and writes
// arbitrary-length slices at an absolute byte offset. It mirrors
// io.ReaderAt/io.WriterAt but uses a uint32 offset, since no file in
// this system ever exceeds a uint32 length.
type ByteReaderWriterAt interface {
	ReadAt(buf []byte, pos uint32) (int, error)
	WriteAt(buf []byte, pos uint32) (int, error)
}
