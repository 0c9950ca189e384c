package assistant

import (
	"bytes"
	"encoding/json"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

type chunkFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder reconstructs text deltas from a chunked response stream without
// assuming anything about where the transport splits its reads. Bytes are
// buffered until a full line is available; a line whose JSON payload does
// not yet parse is pushed back to the front of the buffer until more bytes
// arrive, so a read boundary inside a frame never corrupts decoding.
type Decoder struct {
	buf     []byte
	done    bool
	dropped int
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a raw chunk and returns every delta that became decodable.
// Deltas are returned in arrival order.
func (d *Decoder) Feed(chunk []byte) []string {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, chunk...)
	return d.drain(false)
}

// Close makes one best-effort pass over whatever is still buffered. Lines
// that remain unparsable at true end of stream are dropped and counted.
func (d *Decoder) Close() []string {
	if d.done {
		return nil
	}
	deltas := d.drain(true)
	d.done = true
	d.buf = nil
	return deltas
}

// Done reports whether the terminal sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

// Dropped counts lines discarded as unparsable at end of stream.
func (d *Decoder) Dropped() int {
	return d.dropped
}

func (d *Decoder) drain(final bool) []string {
	var deltas []string

	for !d.done {
		i := bytes.IndexByte(d.buf, '\n')
		var line []byte
		if i < 0 {
			if !final || len(d.buf) == 0 {
				break
			}
			line = d.buf
			d.buf = nil
		} else {
			line = d.buf[:i]
			d.buf = d.buf[i+1:]
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == ':' {
			continue
		}
		if !bytes.HasPrefix(trimmed, []byte(dataPrefix)) {
			continue
		}

		payload := bytes.TrimSpace(trimmed[len(dataPrefix):])
		if string(payload) == doneSentinel {
			d.done = true
			d.buf = nil
			break
		}

		var frame chunkFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			if final {
				d.dropped++
				continue
			}
			// The payload may have been split mid-frame. Put the line
			// back, newline included, and wait for more bytes.
			requeued := make([]byte, 0, len(line)+1+len(d.buf))
			requeued = append(requeued, line...)
			requeued = append(requeued, '\n')
			requeued = append(requeued, d.buf...)
			d.buf = requeued
			break
		}

		if len(frame.Choices) > 0 && frame.Choices[0].Delta.Content != "" {
			deltas = append(deltas, frame.Choices[0].Delta.Content)
		}
	}

	return deltas
}
