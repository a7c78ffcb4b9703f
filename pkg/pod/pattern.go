package pod

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyPattern is returned for a pattern with no words.
var ErrEmptyPattern = errors.New("pattern has no words")

// PatternLoader resolves a pattern reference to the words written into a
// link's generator.
type PatternLoader func(ref string) ([]uint32, error)

// LoadPatternFile reads a pattern file: one hexadecimal word per line,
// with an optional 0x prefix. Blank lines and text after # are ignored.
func LoadPatternFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePattern(f)
}

// ParsePattern parses pattern words from r in the LoadPatternFile format.
func ParsePattern(r io.Reader) ([]uint32, error) {
	var words []uint32
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
		w, err := strconv.ParseUint(text, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		words = append(words, uint32(w))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrEmptyPattern
	}
	return words, nil
}
