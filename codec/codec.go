// Package codec encodes run ledger records as JSON lines.
//
// Both built-in codecs emit standard JSON, so a ledger written with one can
// be read with the other.
package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// MaxLineSize bounds a single encoded record.
const MaxLineSize = 1 << 20

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for new ledgers.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MarshalLine encodes v followed by a newline. A nil codec selects Default.
func MarshalLine(c Codec, v any) ([]byte, error) {
	if c == nil {
		c = Default
	}
	data, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	return append(data, '\n'), nil
}

// ScanLines calls fn with every non-blank line of r and its 1-based line
// number. It stops at the first error fn returns.
func ScanLines(r io.Reader, fn func(line int, data []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for line := 1; sc.Scan(); line++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := fn(line, data); err != nil {
			return err
		}
	}
	return sc.Err()
}
