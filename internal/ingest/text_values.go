package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
)

var errShortLine = errors.New(`expected "name;value"`)

// TextSource reads "name;value" lines. Reading stops at the first empty
// line; later duplicates of a name overwrite earlier ones.
type TextSource struct {
	FS   billy.Filesystem
	Path string
}

// Values implements ValueSource.
func (s *TextSource) Values(ctx context.Context) (map[string]float64, error) {
	f, err := s.FS.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open values %s: %w", s.Path, err)
	}
	defer func() { _ = f.Close() }() // read-only

	values := make(map[string]float64)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			break
		}
		if lineNo%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		name, raw, ok := strings.Cut(line, ";")
		if !ok {
			return nil, &ValueFormatError{Source: s.Path, Record: "line " + strconv.Itoa(lineNo), Err: errShortLine}
		}
		// Fields past the value are ignored.
		raw, _, _ = strings.Cut(raw, ";")
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, &ValueFormatError{Source: s.Path, Record: "line " + strconv.Itoa(lineNo), Err: err}
		}
		values[cellName(name)] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read values %s: %w", s.Path, err)
	}
	return values, nil
}

// cellName trims the blanks around each label of a composite name, matching
// how hierarchy labels are read.
func cellName(name string) string {
	labels := strings.Split(name, ",")
	for i, l := range labels {
		labels[i] = strings.TrimSpace(l)
	}
	return strings.Join(labels, ",")
}
