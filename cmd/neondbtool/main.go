// Command neondbtool inspects and manipulates .neondb volumes from
// the shell: creating them, listing allocated blocks, allocating and
// freeing space, and dumping raw bytes for debugging.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/snaztoz/neondb"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "create":
		err = runCreate(rest)
	case "blocks":
		err = runBlocks(rest)
	case "alloc":
		err = runAlloc(rest)
	case "dealloc":
		err = runDealloc(rest)
	case "dump":
		err = runDump(rest)
	default:
		fmt.Printf("unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("neondbtool: %v", err)
	}
}

func usage() {
	fmt.Println("Usage: neondbtool <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  create <file.neondb>                 create a new volume")
	fmt.Println("  blocks <file.neondb>                  list allocated blocks")
	fmt.Println("  alloc <file.neondb> <size>            allocate a block, print its address")
	fmt.Println("  dealloc <file.neondb> <address>       free the block at address")
	fmt.Println("  dump <file.neondb> <address> <length>  hex-dump bytes starting at address")
}

func runCreate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: neondbtool create <file.neondb>")
	}
	s := neondb.New()
	if err := s.MountNew(args[0]); err != nil {
		return err
	}
	defer s.Unmount()
	fmt.Printf("created %s\n", args[0])
	return nil
}

func runBlocks(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: neondbtool blocks <file.neondb>")
	}
	s := neondb.New()
	if err := s.Mount(args[0]); err != nil {
		return err
	}
	defer s.Unmount()

	blocks, err := s.Blocks()
	if err != nil {
		return err
	}
	for _, b := range blocks {
		fmt.Printf("address=%d size=%d\n", b.Address, b.Size)
	}
	fmt.Printf("%d block(s)\n", len(blocks))
	return nil
}

func runAlloc(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: neondbtool alloc <file.neondb> <size>")
	}
	var size int
	if _, err := fmt.Sscanf(args[1], "%d", &size); err != nil {
		return fmt.Errorf("invalid size %q", args[1])
	}

	s := neondb.New()
	if err := s.Mount(args[0]); err != nil {
		return err
	}
	defer s.Unmount()

	addr, err := s.Alloc(size)
	if err != nil {
		return err
	}
	fmt.Printf("address=%d\n", addr)
	return nil
}

func runDealloc(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: neondbtool dealloc <file.neondb> <address>")
	}
	var addr uint64
	if _, err := fmt.Sscanf(args[1], "%d", &addr); err != nil {
		return fmt.Errorf("invalid address %q", args[1])
	}

	s := neondb.New()
	if err := s.Mount(args[0]); err != nil {
		return err
	}
	defer s.Unmount()

	return s.Dealloc(addr)
}

func runDump(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: neondbtool dump <file.neondb> <address> <length>")
	}
	var addr uint64
	if _, err := fmt.Sscanf(args[1], "%d", &addr); err != nil {
		return fmt.Errorf("invalid address %q", args[1])
	}
	var length int
	if _, err := fmt.Sscanf(args[2], "%d", &length); err != nil {
		return fmt.Errorf("invalid length %q", args[2])
	}

	s := neondb.New(neondb.WithReadOnly())
	if err := s.Mount(args[0]); err != nil {
		return err
	}
	defer s.Unmount()

	buf := make([]byte, length)
	n, err := s.Read(addr, buf)
	if err != nil {
		return err
	}
	hexDump(addr, buf[:n])
	return nil
}

func hexDump(base uint64, buf []byte) {
	for i := 0; i < len(buf); i += 16 {
		end := i + 16
		if end > len(buf) {
			end = len(buf)
		}
		chunk := buf[i:end]

		fmt.Printf("%08x: ", base+uint64(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Printf("%02x ", chunk[j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}
		fmt.Print(" |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
