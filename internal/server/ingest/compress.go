package ingest

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	b := bufferPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

func putBuffer(b *bytes.Buffer) {
	if b == nil {
		return
	}
	// Very large buffers are left to the GC instead of pinning memory.
	if b.Cap() > 64<<20 {
		return
	}
	bufferPool.Put(b)
}

// Compress gzips src into dst.
func Compress(dst io.Writer, src io.Reader) error {
	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
