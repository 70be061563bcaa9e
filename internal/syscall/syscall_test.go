package syscall

import (
	"testing"

	"simfs/internal/debugflags"
	"simfs/internal/disk"
	"simfs/internal/filesystem"
	"simfs/internal/pointer"
)

func setupSyscalls(t *testing.T) *Syscalls {
	t.Helper()
	path := t.TempDir() + "/sys.img"
	d, err := disk.Create(path, 128, 2048)
	if err != nil {
		t.Fatalf("disk.Create: %v", err)
	}
	fs, err := filesystem.Format(d, pointer.Geometry{SectorSize: 128}, debugflags.Parse(""))
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	t.Cleanup(func() { fs.Close() })
	return New(fs)
}

func TestCreateOpenWriteReadClose(t *testing.T) {
	s := setupSyscalls(t)

	if rc := s.Create("/greeting", 5); rc != Success {
		t.Fatalf("Create: rc=%d", rc)
	}
	id := s.Open("/greeting")
	if id < 0 {
		t.Fatalf("Open: id=%d", id)
	}

	data := []byte("hello")
	if n := s.Write(data, len(data), id); n != len(data) {
		t.Fatalf("Write: n=%d", n)
	}

	buf := make([]byte, 5)
	if rc := s.Close(id); rc != Success {
		t.Fatalf("Close: rc=%d", rc)
	}

	id = s.Open("/greeting")
	if id < 0 {
		t.Fatalf("reopen: id=%d", id)
	}
	n := s.Read(buf, len(buf), id)
	if n != 5 || string(buf[:n]) != "hello" {
		t.Errorf("Read: n=%d buf=%q", n, buf[:n])
	}
	s.Close(id)
}

func TestOpenMissingFileFails(t *testing.T) {
	s := setupSyscalls(t)
	if id := s.Open("/nope"); id != -1 {
		t.Errorf("expected -1 opening a missing file, got %d", id)
	}
}

func TestReadWriteBadIdFails(t *testing.T) {
	s := setupSyscalls(t)
	buf := make([]byte, 4)
	if n := s.Read(buf, len(buf), 999); n != -1 {
		t.Errorf("expected -1 reading a bad id, got %d", n)
	}
	if n := s.Write(buf, len(buf), 999); n != -1 {
		t.Errorf("expected -1 writing a bad id, got %d", n)
	}
}

func TestCloseUnknownIdFails(t *testing.T) {
	s := setupSyscalls(t)
	if rc := s.Close(999); rc != Failure {
		t.Errorf("expected Failure closing an unopened id, got %d", rc)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	s := setupSyscalls(t)
	s.Create("/a", 1)
	if rc := s.Create("/a", 1); rc != Failure {
		t.Errorf("expected Failure on duplicate create, got %d", rc)
	}
}
