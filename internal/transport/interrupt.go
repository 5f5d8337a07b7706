package transport

import (
	"bytes"
	"io"
)

const (
	ctrlC = 0x03
	ctrlD = 0x04
)

// hangupReader ends the stream at the first Ctrl-C or Ctrl-D, which raw
// terminals deliver as plain bytes.
type hangupReader struct {
	r    io.Reader
	done bool
}

func (h *hangupReader) Read(p []byte) (int, error) {
	if h.done {
		return 0, io.EOF
	}

	n, err := h.r.Read(p)
	if i := bytes.IndexAny(p[:n], string([]byte{ctrlC, ctrlD})); i >= 0 {
		h.done = true
		return i, nil
	}
	return n, err
}
