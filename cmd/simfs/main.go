// Command simfs is the interactive harness around the file system
// core: it formats or mounts a disk image, then either runs the
// one-shot batch flags (-cp, -r, -l, -lr, -D) and exits or, when none
// is given, drives it from an interactive command loop, the role the
// teacher's internal/menu
// package (source repo) played for its ext2-style file system,
// generalized to the pointer-tree layout and extended with the -D and
// -d flags original_source/HW1's nachos driver exposes for its own
// filesys test programs.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"simfs/internal/debugflags"
	"simfs/internal/disk"
	"simfs/internal/filesystem"
	"simfs/internal/pointer"
)

func main() {
	diskPath := flag.String("f", "simfs.img", "disk image path")
	format := flag.Bool("format", false, "format a fresh disk image before starting")
	sectorSize := flag.Uint("s", 128, "sector size in bytes")
	sectorCount := flag.Uint("n", 1024, "sector count")
	dumpFlag := flag.Bool("D", false, "dump the bitmap and directory tree, then exit")
	debugArg := flag.String("d", "", "enable debug trace categories (letters, or + for all)")
	cpSrc := flag.String("cp", "", "copy a host file into the simulated file system at -p")
	cpDst := flag.String("p", "", "destination path for -cp")
	removePath := flag.String("r", "", "remove the file or directory at this path")
	listPath := flag.String("l", "", "list the directory at this path")
	listRecursivePath := flag.String("lr", "", "recursively list the directory at this path")
	flag.Parse()

	dbg := debugflags.Parse(*debugArg)
	geom := pointer.Geometry{SectorSize: uint32(*sectorSize)}

	fs, err := mountOrFormat(*diskPath, geom, uint32(*sectorCount), *format, dbg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "simfs:", err)
		os.Exit(1)
	}
	defer fs.Close()

	ranBatch := false
	if *cpSrc != "" {
		ranBatch = true
		if err := copyIn(fs, *cpSrc, *cpDst); err != nil {
			fmt.Fprintln(os.Stderr, "simfs: cp:", err)
		}
	}
	if *removePath != "" {
		ranBatch = true
		if err := fs.Remove(*removePath); err != nil {
			fmt.Fprintln(os.Stderr, "simfs: remove:", err)
		}
	}
	if *listPath != "" {
		ranBatch = true
		printList(fs, *listPath, false)
	}
	if *listRecursivePath != "" {
		ranBatch = true
		printList(fs, *listRecursivePath, true)
	}
	if *dumpFlag {
		ranBatch = true
		if err := fs.Dump(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "simfs: dump:", err)
		}
	}

	if ranBatch {
		return
	}
	repl(fs)
}

func mountOrFormat(path string, geom pointer.Geometry, sectorCount uint32, format bool, dbg *debugflags.Flags) (*filesystem.FileSystem, error) {
	if format {
		d, err := disk.Create(path, geom.SectorSize, sectorCount)
		if err != nil {
			return nil, err
		}
		return filesystem.Format(d, geom, dbg)
	}
	d, err := disk.Open(path, geom.SectorSize, sectorCount)
	if err != nil {
		return nil, err
	}
	return filesystem.Mount(d, geom, dbg)
}

func copyIn(fs *filesystem.FileSystem, srcPath, dstPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	if err := fs.Create(dstPath, uint32(len(data)), false); err != nil {
		return err
	}
	id, err := fs.Open(dstPath)
	if err != nil {
		return err
	}
	defer fs.CloseFile(id)
	_, err = fs.Write(id, data)
	return err
}

func printList(fs *filesystem.FileSystem, path string, recursive bool) {
	var lines []string
	var err error
	if recursive {
		lines, err = fs.ListRecursive(path)
	} else {
		lines, err = fs.List(path)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "simfs: list:", err)
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

// repl is the interactive command loop: one line in, one command
// executed, echoing the prompt/command shape the deleted teacher menu
// used for its create/open/read/write/close/list/remove commands.
func repl(fs *filesystem.FileSystem) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("simfs> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := executeCommand(fs, line); err != nil {
			fmt.Println("error:", err)
		}
	}
}

var openIds = map[string]uint32{}

func executeCommand(fs *filesystem.FileSystem, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("usage: mkdir <path>")
		}
		return fs.Create(args[0], 0, true)
	case "create":
		if len(args) != 2 {
			return fmt.Errorf("usage: create <path> <size>")
		}
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		if size < 0 {
			return fmt.Errorf("usage: create <path> <size>: size must not be negative")
		}
		return fs.Create(args[0], uint32(size), false)
	case "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: open <path>")
		}
		id, err := fs.Open(args[0])
		if err != nil {
			return err
		}
		openIds[args[0]] = id
		fmt.Println("opened id", id)
		return nil
	case "read":
		if len(args) != 2 {
			return fmt.Errorf("usage: read <path> <n>")
		}
		id, ok := openIds[args[0]]
		if !ok {
			return fmt.Errorf("%s is not open", args[0])
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		read, err := fs.Read(id, buf)
		if err != nil {
			return err
		}
		fmt.Printf("%q\n", buf[:read])
		return nil
	case "write":
		if len(args) != 2 {
			return fmt.Errorf("usage: write <path> <text>")
		}
		id, ok := openIds[args[0]]
		if !ok {
			return fmt.Errorf("%s is not open", args[0])
		}
		_, err := fs.Write(id, []byte(args[1]))
		return err
	case "close":
		if len(args) != 1 {
			return fmt.Errorf("usage: close <path>")
		}
		id, ok := openIds[args[0]]
		if !ok {
			return fmt.Errorf("%s is not open", args[0])
		}
		delete(openIds, args[0])
		return fs.CloseFile(id)
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: rm <path>")
		}
		return fs.Remove(args[0])
	case "ls":
		if len(args) != 1 {
			return fmt.Errorf("usage: ls <path>")
		}
		printList(fs, args[0], false)
		return nil
	case "lsr":
		if len(args) != 1 {
			return fmt.Errorf("usage: lsr <path>")
		}
		printList(fs, args[0], true)
		return nil
	case "dump":
		return fs.Dump(os.Stdout)
	case "quit", "exit":
		os.Exit(0)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
