package executor

import (
	"bytes"
	"sync"
)

// binarySampleSize is how many leading bytes are scanned for NULs, same as git.
const binarySampleSize = 8000

// collector captures command output with size limits and binary content detection.
// Writes never fail, so it can sit behind an io.MultiWriter without stopping
// the live copy once the cap is reached.
type collector struct {
	mu        sync.Mutex
	buffer    bytes.Buffer
	maxBytes  int64
	truncated bool
	isBinary  bool

	bytesChecked int
	sampleSize   int
}

func newCollector(maxBytes int64, sampleSize int) *collector {
	return &collector{
		maxBytes:   maxBytes,
		sampleSize: sampleSize,
	}
}

func (c *collector) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isBinary {
		return len(p), nil
	}

	if c.bytesChecked < c.sampleSize {
		remainingCheck := c.sampleSize - c.bytesChecked
		toCheck := p
		if len(toCheck) > remainingCheck {
			toCheck = toCheck[:remainingCheck]
		}

		if isBinaryContent(toCheck) {
			c.isBinary = true
			c.truncated = true
			return len(p), nil
		}
		c.bytesChecked += len(toCheck)
	}

	remainingSpace := c.maxBytes - int64(c.buffer.Len())
	if remainingSpace <= 0 {
		c.truncated = true
		return len(p), nil
	}

	toWrite := p
	if int64(len(toWrite)) > remainingSpace {
		toWrite = toWrite[:remainingSpace]
		c.truncated = true
	}

	c.buffer.Write(toWrite)
	return len(p), nil
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isBinary {
		return "[Binary Content]"
	}
	return c.buffer.String()
}

func (c *collector) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

// isBinaryContent looks for NUL bytes, skipping content that starts with a
// UTF-16 or UTF-32 byte order mark.
func isBinaryContent(content []byte) bool {
	if len(content) >= 2 {
		if (content[0] == 0xFF && content[1] == 0xFE) ||
			(content[0] == 0xFE && content[1] == 0xFF) {
			return false
		}
	}
	if len(content) >= 4 {
		if content[0] == 0x00 && content[1] == 0x00 && content[2] == 0xFE && content[3] == 0xFF {
			return false
		}
	}
	return bytes.IndexByte(content, 0) >= 0
}
