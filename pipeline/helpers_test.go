package pipeline

import (
	"bytes"
	"io"
	"sync/atomic"
)

type countingReader struct {
	*bytes.Reader
	inFlight *atomic.Int32
}

func (r countingReader) Close() error {
	r.inFlight.Add(-1)
	return nil
}

func trackedReader(data []byte, inFlight *atomic.Int32) io.ReadCloser {
	return countingReader{Reader: bytes.NewReader(data), inFlight: inFlight}
}
