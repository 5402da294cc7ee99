package capture

import "bytes"

// liveReplayMarker starts the live replay protocol header. The header runs
// up to the next null byte and is not part of the replay file.
var liveReplayMarker = []byte{'P', '/'}

// captureBuffer accumulates the replay stream of one connection. Only the
// first chunk is inspected for the live header; a marker split across two
// reads is not recognised.
type captureBuffer struct {
	buf       bytes.Buffer
	seenFirst bool
}

func (c *captureBuffer) Append(chunk []byte) {
	if !c.seenFirst {
		c.seenFirst = true
		chunk = stripLiveHeader(chunk)
	}
	c.buf.Write(chunk)
}

func (c *captureBuffer) Bytes() []byte { return c.buf.Bytes() }

func (c *captureBuffer) Len() int { return c.buf.Len() }

// stripLiveHeader drops everything up to and including the first null byte
// following the marker. Without a marker, or without a null after it, the
// chunk is returned unchanged.
func stripLiveHeader(chunk []byte) []byte {
	i := bytes.Index(chunk, liveReplayMarker)
	if i < 0 {
		return chunk
	}
	rest := chunk[i+len(liveReplayMarker):]
	j := bytes.IndexByte(rest, 0x00)
	if j < 0 {
		return chunk
	}
	return rest[j+1:]
}
