package assistant

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", content)
}

func collect(d *Decoder, chunks ...[]byte) []string {
	var deltas []string
	for _, chunk := range chunks {
		deltas = append(deltas, d.Feed(chunk)...)
	}
	if !d.Done() {
		deltas = append(deltas, d.Close()...)
	}
	return deltas
}

func TestDecoderSingleFrameSplitMidLine(t *testing.T) {
	raw := []byte(`data: {"choices":[{"delta":{"content":"Hi"}}]}` + "\n\n")

	d := NewDecoder()
	deltas := collect(d, raw[:10], raw[10:])

	assert.Equal(t, []string{"Hi"}, deltas)
}

func TestDecoderChunkBoundaryInvariance(t *testing.T) {
	stream := frame("Hel") + ": keep-alive\n" + frame("lo") + "\n" + frame(" world") + "data: [DONE]\n"
	raw := []byte(stream)

	expected := collect(NewDecoder(), raw)
	require.Equal(t, []string{"Hel", "lo", " world"}, expected)

	for i := 1; i < len(raw); i++ {
		d := NewDecoder()
		got := collect(d, raw[:i], raw[i:])
		assert.Equal(t, expected, got, "split at byte %d", i)
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	raw := []byte(frame("a") + frame("b") + "data: [DONE]\n")

	d := NewDecoder()
	var deltas []string
	for _, b := range raw {
		deltas = append(deltas, d.Feed([]byte{b})...)
	}

	assert.Equal(t, []string{"a", "b"}, deltas)
	assert.True(t, d.Done())
}

func TestDecoderDoneSentinelStopsStream(t *testing.T) {
	d := NewDecoder()
	deltas := d.Feed([]byte(frame("before") + "data: [DONE]\n" + frame("after")))

	assert.Equal(t, []string{"before"}, deltas)
	assert.True(t, d.Done())
	assert.Empty(t, d.Feed([]byte(frame("late"))))
}

func TestDecoderIgnoresCommentsAndBlankLines(t *testing.T) {
	d := NewDecoder()
	deltas := d.Feed([]byte(": heartbeat\n\n\r\n" + frame("x") + "event: message\n"))

	assert.Equal(t, []string{"x"}, deltas)
}

func TestDecoderRequeuesUnparsablePayloadUntilMoreBytes(t *testing.T) {
	// A payload whose line arrived truncated (newline came from the next
	// physical chunk) must not be consumed until it parses.
	d := NewDecoder()

	deltas := d.Feed([]byte(`data: {"choices":[{"delta":{"content":"par` + "\n"))
	assert.Empty(t, deltas)

	// The decoder pauses on the bad line; feeding the remainder of the
	// stream still ends in it being dropped only at true end of stream.
	deltas = d.Feed([]byte(frame("next")))
	assert.Empty(t, deltas)

	final := d.Close()
	assert.Equal(t, []string{"next"}, final)
	assert.Equal(t, 1, d.Dropped())
}

func TestDecoderCloseFlushesTrailingLineWithoutNewline(t *testing.T) {
	d := NewDecoder()
	require.Empty(t, d.Feed([]byte(strings.TrimSuffix(frame("tail"), "\n\n"))))

	assert.Equal(t, []string{"tail"}, d.Close())
	assert.Zero(t, d.Dropped())
}

func TestDecoderFramesWithoutContentEmitNothing(t *testing.T) {
	d := NewDecoder()
	deltas := d.Feed([]byte(`data: {"choices":[{"delta":{}}]}` + "\n" + `data: {"choices":[]}` + "\n"))

	assert.Empty(t, deltas)
}
