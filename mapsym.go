// Package mapsym converts a linker address map file into a symbol file that the openMSX debugger
// can load. Every map entry naming an address becomes an assembler equ directive.
package mapsym

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MaxLineLength is the longest map file line Convert accepts.
const MaxLineLength = 1024 * 1024

// ReservedPrefixes mark map entries that are not addresses: lengths (l__), sizes (s__) and
// section markers (.__). The debugger mistakes them for addresses, so they are dropped.
var ReservedPrefixes = []string{"l__", "s__", ".__"}

// Symbol is a map entry that made it into the symbol file. Value is the hex literal exactly as
// it appeared in the map file.
type Symbol struct {
	Name  string
	Value string
}

// String returns the symbol as an equ directive without the trailing newline.
func (s Symbol) String() string {
	return s.Name + ": equ " + s.Value + "H"
}

// Stats counts how the lines of a map file were classified.
type Stats struct {
	Lines    int // lines read
	Written  int // symbols written
	Short    int // lines with fewer than two words
	Reserved int // lines naming a length, size or section marker
	NotHex   int // lines not starting with a hex value
}

// Paths returns the map file and symbol file paths for the map file called name in dir.
func Paths(dir, name string) (in, out string) {
	return filepath.Join(dir, name+".map"), filepath.Join(dir, name+"_.sym")
}

// ConvertFile converts the map file at inPath into the symbol file at outPath. outPath is
// created or truncated before inPath is opened.
func ConvertFile(inPath, outPath string) (stats Stats, err error) {
	fout, err := os.Create(outPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := fout.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close symbol file %q: %w", outPath, cerr)
		}
	}()

	fin, err := os.Open(inPath)
	if err != nil {
		return stats, err
	}
	defer fin.Close()

	return Convert(fin, fout)
}

// Convert reads a map file from r and writes a symbol file to w. Each line is handled on its
// own: it is written as an equ directive if its first word is a hex value and its second word
// is a symbol name without a reserved prefix. All other lines are skipped.
func Convert(r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats
	bw := bufio.NewWriter(w)

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), MaxLineLength)
	for s.Scan() {
		stats.Lines++

		sym, ok := parseLine(s.Text(), &stats)
		if !ok {
			continue
		}

		if err := code(sym, bw); err != nil {
			return stats, err
		}
		stats.Written++
	}
	if err := s.Err(); err != nil {
		return stats, fmt.Errorf("failed to read map file at line %d: %w", stats.Lines+1, err)
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to write symbol file: %w", err)
	}
	return stats, nil
}

// parseLine returns the symbol defined by line. ok is false if the line does not define one,
// in which case stats records why.
func parseLine(line string, stats *Stats) (sym Symbol, ok bool) {
	words := strings.Fields(line)
	if len(words) < 2 {
		stats.Short++
		return Symbol{}, false
	}

	// the prefix is checked first so reserved entries are dropped whatever their address
	if IsReserved(words[1]) {
		stats.Reserved++
		return Symbol{}, false
	}
	if !IsHex(words[0]) {
		stats.NotHex++
		return Symbol{}, false
	}

	return Symbol{Name: words[1], Value: words[0]}, true
}

// code writes sym as a single line equ directive.
func code(sym Symbol, w io.Writer) error {
	_, err := io.WriteString(w, sym.String()+"\n")
	if err != nil {
		return fmt.Errorf("failed to write symbol %q: %w", sym.Name, err)
	}
	return nil
}

// IsReserved returns true if name starts with one of the ReservedPrefixes.
func IsReserved(name string) bool {
	for _, p := range ReservedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// IsHex returns true if s is a base-16 integer: an optional sign followed by at least one hex
// digit. Values of any magnitude are accepted.
func IsHex(s string) bool {
	_, err := strconv.ParseInt(s, 16, 64)
	if err == nil {
		return true
	}
	// the digits are fine, the value just does not fit
	return errors.Is(err, strconv.ErrRange)
}
