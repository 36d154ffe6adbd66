package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// MAX_LINE bounds a single trace line.
const MAX_LINE = 1 << 20

// Divergence is the first line at which two logs differ. A side that ended
// early reads as "<EOF>".
type Divergence struct {
	Line int
	Ref  string
	Test string
}

// Result groups log names by outcome.
type Result struct {
	Match    []string
	Mismatch []string
	Errors   []string

	Diffs  map[string]Divergence
	Causes map[string]error
}

// OK reports whether every log matched.
func (r *Result) OK() bool {
	return len(r.Mismatch) == 0 && len(r.Errors) == 0
}

// Comparer checks the *.log files of a test directory against the files of
// the same name in a reference directory.
type Comparer struct {
	refDir  string
	testDir string
	pattern string
}

func NewComparer(refDir, testDir string) *Comparer {
	return &Comparer{refDir: refDir, testDir: testDir, pattern: "*.log"}
}

// Names lists the log files in the test directory, sorted.
func (c *Comparer) Names() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(c.testDir, c.pattern))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Comparer) Compare() (*Result, error) {
	names, err := c.Names()
	if err != nil {
		return nil, err
	}
	res := &Result{Diffs: map[string]Divergence{}, Causes: map[string]error{}}
	for _, name := range names {
		d, same, err := compareFiles(filepath.Join(c.refDir, name), filepath.Join(c.testDir, name))
		switch {
		case err != nil:
			res.Errors = append(res.Errors, name)
			res.Causes[name] = err
		case same:
			res.Match = append(res.Match, name)
		default:
			res.Mismatch = append(res.Mismatch, name)
			res.Diffs[name] = d
		}
	}
	return res, nil
}

func compareFiles(refPath, testPath string) (Divergence, bool, error) {
	ref, err := os.Open(refPath)
	if err != nil {
		return Divergence{}, false, err
	}
	defer ref.Close()
	test, err := os.Open(testPath)
	if err != nil {
		return Divergence{}, false, err
	}
	defer test.Close()
	return FirstDivergence(ref, test)
}

// FirstDivergence compares two logs byte for byte, line by line. Line endings
// are part of a line, so CRLF against LF or a missing final newline is a
// divergence. It returns same=true when the streams are identical.
func FirstDivergence(ref, test io.Reader) (Divergence, bool, error) {
	rs := bufio.NewScanner(ref)
	ts := bufio.NewScanner(test)
	rs.Buffer(make([]byte, 64*1024), MAX_LINE)
	ts.Buffer(make([]byte, 64*1024), MAX_LINE)
	rs.Split(scanRawLines)
	ts.Split(scanRawLines)

	for line := 1; ; line++ {
		rok, tok := rs.Scan(), ts.Scan()
		if !rok || !tok {
			if err := rs.Err(); err != nil {
				return Divergence{}, false, fmt.Errorf("reference: %w", err)
			}
			if err := ts.Err(); err != nil {
				return Divergence{}, false, fmt.Errorf("test: %w", err)
			}
		}
		switch {
		case !rok && !tok:
			return Divergence{}, true, nil
		case !rok:
			return Divergence{Line: line, Ref: "<EOF>", Test: shown(ts.Text(), false)}, false, nil
		case !tok:
			return Divergence{Line: line, Ref: shown(rs.Text(), false), Test: "<EOF>"}, false, nil
		}
		r, t := rs.Text(), ts.Text()
		if r != t {
			// quote when only the line endings differ
			raw := strings.TrimRight(r, "\r\n") == strings.TrimRight(t, "\r\n")
			return Divergence{Line: line, Ref: shown(r, raw), Test: shown(t, raw)}, false, nil
		}
	}
}

// scanRawLines is bufio.ScanLines without stripping the terminator.
func scanRawLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func shown(line string, quote bool) string {
	if quote {
		return strconv.Quote(line)
	}
	return strings.TrimRight(line, "\r\n")
}

// Report writes a human-readable summary of r.
func Report(w io.Writer, r *Result) {
	fmt.Fprintf(w, "match:    %d\n", len(r.Match))
	fmt.Fprintf(w, "mismatch: %d\n", len(r.Mismatch))
	for _, name := range r.Mismatch {
		d := r.Diffs[name]
		fmt.Fprintf(w, "  %s: line %d\n    ref:  %s\n    test: %s\n", name, d.Line, d.Ref, d.Test)
	}
	fmt.Fprintf(w, "errors:   %d\n", len(r.Errors))
	for _, name := range r.Errors {
		fmt.Fprintf(w, "  %s: %v\n", name, r.Causes[name])
	}
}
