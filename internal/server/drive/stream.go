package drive

import (
	"context"
	"errors"
	"io"
)

// DefaultChunkSize is used when CopyChunks is given a non-positive size.
const DefaultChunkSize = 1 << 20

// CopyChunks streams src to dst in chunkSize pieces until EOF, checking ctx
// between chunks. It returns the number of bytes written.
func CopyChunks(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, rerr := io.ReadFull(src, buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, werr
			}
			if w != n {
				return written, io.ErrShortWrite
			}
			if f, ok := dst.(interface{ Flush() }); ok {
				f.Flush()
			}
		}

		switch {
		case rerr == nil:
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			return written, nil
		default:
			return written, rerr
		}
	}
}
