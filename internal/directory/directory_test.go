package directory

import (
	"testing"

	"simfs/internal/bitmap"
	"simfs/internal/disk"
	"simfs/internal/header"
	"simfs/internal/openfile"
	"simfs/internal/pointer"
)

const testSectorSize = 128

func testGeom() pointer.Geometry { return pointer.Geometry{SectorSize: testSectorSize} }

func newBackingFile(t *testing.T, sector uint32, bm *bitmap.Bitmap, d *disk.Disk) *openfile.OpenFile {
	t.Helper()
	h := header.New(sector, testGeom())
	if err := h.Allocate(bm, Capacity*EntrySize()); err != nil {
		t.Fatalf("Allocate directory header: %v", err)
	}
	if err := h.WriteBack(d); err != nil {
		t.Fatalf("WriteBack: %v", err)
	}
	return openfile.Open(h, d)
}

func TestAddFindRemove(t *testing.T) {
	d := New()
	if err := d.Add("foo", 10, TypeFile); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sector, ok := d.Find("foo")
	if !ok || sector != 10 {
		t.Errorf("Find(foo): ok=%v sector=%d", ok, sector)
	}
	if err := d.Remove("foo"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := d.Find("foo"); ok {
		t.Errorf("foo should be gone after Remove")
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	d := New()
	_ = d.Add("foo", 1, TypeFile)
	if err := d.Add("foo", 2, TypeFile); err == nil {
		t.Errorf("expected duplicate name to be rejected")
	}
}

func TestAddFillsToCapacity(t *testing.T) {
	d := New()
	for i := 0; i < Capacity; i++ {
		name := string(rune('a' + i%26))
		if i >= 26 {
			name = name + string(rune('0'+i/26))
		}
		if err := d.Add(name, uint32(i), TypeFile); err != nil {
			t.Fatalf("Add entry %d (%s): %v", i, name, err)
		}
	}
	if err := d.Add("overflow", 999, TypeFile); err == nil {
		t.Errorf("expected ErrDirectoryFull once at capacity")
	}
}

func TestNameTooLongRejected(t *testing.T) {
	d := New()
	if err := d.Add("0123456789", 1, TypeFile); err == nil {
		t.Errorf("expected name longer than NameLen to be rejected")
	}
}

func TestIsDirectory(t *testing.T) {
	d := New()
	_ = d.Add("file", 1, TypeFile)
	_ = d.Add("dir", 2, TypeDir)

	if isDir, ok := d.IsDirectory("file"); !ok || isDir {
		t.Errorf("file entry should report isDir=false")
	}
	if isDir, ok := d.IsDirectory("dir"); !ok || !isDir {
		t.Errorf("dir entry should report isDir=true")
	}
	if _, ok := d.IsDirectory("missing"); ok {
		t.Errorf("missing entry should report ok=false")
	}
}

func TestFetchFromWriteBackRoundTrip(t *testing.T) {
	path := t.TempDir() + "/dir.img"
	disk0, err := disk.Create(path, testSectorSize, 2048)
	if err != nil {
		t.Fatalf("disk.Create: %v", err)
	}
	defer disk0.Close()
	bm := bitmap.New(2048)
	of := newBackingFile(t, 5, bm, disk0)

	original := New()
	_ = original.Add("a", 100, TypeFile)
	_ = original.Add("sub", 200, TypeDir)
	if err := original.WriteBack(of); err != nil {
		t.Fatalf("WriteBack: %v", err)
	}

	fetched := New()
	if err := fetched.FetchFrom(of); err != nil {
		t.Fatalf("FetchFrom: %v", err)
	}
	sector, ok := fetched.Find("a")
	if !ok || sector != 100 {
		t.Errorf("fetched entry 'a': ok=%v sector=%d", ok, sector)
	}
	isDir, ok := fetched.IsDirectory("sub")
	if !ok || !isDir {
		t.Errorf("fetched entry 'sub' should be a directory")
	}
}

func TestRemoveRecursiveFreesDescendants(t *testing.T) {
	path := t.TempDir() + "/rec.img"
	d, err := disk.Create(path, testSectorSize, 4096)
	if err != nil {
		t.Fatalf("disk.Create: %v", err)
	}
	defer d.Close()

	bm := bitmap.New(4096)
	env := Env{Disk: d, Geom: testGeom()}

	// leaf file
	leafSector, _ := bm.FindAndSet()
	leafHeader := header.New(leafSector, testGeom())
	if err := leafHeader.Allocate(bm, 10); err != nil {
		t.Fatalf("Allocate leaf: %v", err)
	}
	if err := leafHeader.WriteBack(d); err != nil {
		t.Fatalf("WriteBack leaf: %v", err)
	}

	// child directory containing the leaf
	childSector, _ := bm.FindAndSet()
	childHeader := header.New(childSector, testGeom())
	if err := childHeader.Allocate(bm, Capacity*EntrySize()); err != nil {
		t.Fatalf("Allocate child dir: %v", err)
	}
	if err := childHeader.WriteBack(d); err != nil {
		t.Fatalf("WriteBack child dir: %v", err)
	}
	childDir := New()
	_ = childDir.Add("leaf", leafSector, TypeFile)
	if err := childDir.WriteBack(openfile.Open(childHeader, d)); err != nil {
		t.Fatalf("WriteBack childDir: %v", err)
	}

	// top directory containing the child directory
	top := New()
	_ = top.Add("child", childSector, TypeDir)

	freeBefore := bm.NumClear()
	if err := top.RemoveRecursive(env, bm); err != nil {
		t.Fatalf("RemoveRecursive: %v", err)
	}
	if _, ok := top.Find("child"); ok {
		t.Errorf("top directory should have no in-use entries after RemoveRecursive")
	}
	if bm.NumClear() <= freeBefore {
		t.Errorf("expected sectors to be freed, free count %d <= %d", bm.NumClear(), freeBefore)
	}
}

func TestListAndListRecursive(t *testing.T) {
	path := t.TempDir() + "/list.img"
	d, err := disk.Create(path, testSectorSize, 2048)
	if err != nil {
		t.Fatalf("disk.Create: %v", err)
	}
	defer d.Close()
	bm := bitmap.New(2048)
	env := Env{Disk: d, Geom: testGeom()}

	childSector, _ := bm.FindAndSet()
	childHeader := header.New(childSector, testGeom())
	_ = childHeader.Allocate(bm, Capacity*EntrySize())
	_ = childHeader.WriteBack(d)
	childDir := New()
	_ = childDir.Add("grandkid", 999, TypeFile)
	_ = childDir.WriteBack(openfile.Open(childHeader, d))

	top := New()
	_ = top.Add("child", childSector, TypeDir)
	_ = top.Add("file", 1, TypeFile)

	lines := top.List()
	if len(lines) != 2 {
		t.Errorf("List: expected 2 lines, got %d", len(lines))
	}

	var out []string
	if err := top.ListRecursive(env, 0, &out); err != nil {
		t.Fatalf("ListRecursive: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("ListRecursive: expected 3 lines (child, file, grandkid), got %d: %v", len(out), out)
	}
}
