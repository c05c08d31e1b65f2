package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	RunID string `json:"run_id"`
	Found uint64 `json:"found"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsInterchangeable(t *testing.T) {
	in := record{RunID: "r1", Found: 18446744073709551557}

	line, err := MarshalLine(GoJSON{}, in)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(line), "}\n"))

	var out record
	require.NoError(t, JSON{}.Unmarshal(line, &out))
	assert.Equal(t, in, out)

	std, err := MarshalLine(JSON{}, in)
	require.NoError(t, err)
	def, err := MarshalLine(nil, in)
	require.NoError(t, err)
	assert.JSONEq(t, string(std), string(def))
}

func TestMarshalLine_Error(t *testing.T) {
	_, err := MarshalLine(JSON{}, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codec json")
}

func TestScanLines(t *testing.T) {
	input := "{\"run_id\":\"a\"}\n\n  \n{\"run_id\":\"b\"}\n"

	var got []int
	err := ScanLines(strings.NewReader(input), func(line int, data []byte) error {
		var r record
		require.NoError(t, Default.Unmarshal(data, &r))
		got = append(got, line)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, got)

	stop := errors.New("stop")
	err = ScanLines(strings.NewReader(input), func(int, []byte) error { return stop })
	require.ErrorIs(t, err, stop)
}
