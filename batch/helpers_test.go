package batch

import (
	"bytes"
	"io"
)

func bytesReader(b []byte) (io.ReaderAt, int64) {
	return bytes.NewReader(b), int64(len(b))
}
