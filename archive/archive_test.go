package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "1.0")

	require.NoError(t, w.Start("root"))
	require.NoError(t, w.Write("name", "probe-42"))
	require.NoError(t, w.Write("samples", int64(1200)))
	require.NoError(t, w.Write("gain", 3.5))
	require.NoError(t, w.Write("raw", []byte{1, 2, 3, 4}))
	require.NoError(t, w.Write("enabled", true))
	require.NoError(t, w.End())

	r := NewReader(bytes.NewReader(buf.Bytes()), "1.0")
	require.NoError(t, r.Start("root"))

	name, gotName, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "name", name)
	assert.Equal(t, "probe-42", gotName)

	_, gotSamples, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1200), gotSamples)

	_, gotGain, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 3.5, gotGain)

	_, gotRaw, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, gotRaw)

	_, gotEnabled, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, true, gotEnabled)

	require.NoError(t, r.End())
}

func TestArchiveBackwardScan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.bin")

	f, err := os.Create(path)
	require.NoError(t, err)
	w := NewWriter(f, "1.0")
	require.NoError(t, w.Start("root"))
	require.NoError(t, w.Write("a", int64(1)))
	require.NoError(t, w.Write("b", int64(2)))
	require.NoError(t, w.Write("c", int64(3)))
	require.NoError(t, w.End())
	require.NoError(t, f.Close())

	scanner, err := OpenBackwardScanner(path)
	require.NoError(t, err)
	defer scanner.Close()

	end := scanner.Len() - 8 // skip the trailing end-tag's sentinel size field
	var names []string
	var values []int64
	for i := 0; i < 3; i++ {
		fr, newEnd, err := scanner.PreviousFrame(end)
		require.NoError(t, err)
		names = append(names, fr.name)
		v, err := decodeInt64(bytes.NewReader(fr.payload), int64(len(fr.payload)))
		require.NoError(t, err)
		values = append(values, v.(int64))
		end = newEnd
	}

	assert.Equal(t, []string{"c", "b", "a"}, names)
	assert.Equal(t, []int64{3, 2, 1}, values)
}
