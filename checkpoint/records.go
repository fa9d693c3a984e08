package checkpoint

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxRecordSize bounds a single encoded element.
const maxRecordSize = 64 << 20

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

func newDecompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionNone:
		return io.NopCloser(r), nil
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupported, c)
	}
}

// recordWriter frames records as uvarint length followed by payload.
type recordWriter struct {
	bw    *bufio.Writer
	crc   hash.Hash32
	count int
	buf   [binary.MaxVarintLen64]byte
}

func newRecordWriter(w io.Writer) *recordWriter {
	crc := crc32.New(castagnoli)
	return &recordWriter{
		bw:  bufio.NewWriter(io.MultiWriter(w, crc)),
		crc: crc,
	}
}

func (rw *recordWriter) Write(p []byte) error {
	if len(p) > maxRecordSize {
		return fmt.Errorf("record of %d bytes exceeds limit %d", len(p), maxRecordSize)
	}
	n := binary.PutUvarint(rw.buf[:], uint64(len(p)))
	if _, err := rw.bw.Write(rw.buf[:n]); err != nil {
		return err
	}
	if _, err := rw.bw.Write(p); err != nil {
		return err
	}
	rw.count++
	return nil
}

func (rw *recordWriter) Flush() error {
	return rw.bw.Flush()
}

func (rw *recordWriter) Sum() uint32 {
	return rw.crc.Sum32()
}

// recordReader reads records written by recordWriter.
type recordReader struct {
	br  *bufio.Reader
	crc hash.Hash32
	buf []byte
}

func newRecordReader(r io.Reader) *recordReader {
	crc := crc32.New(castagnoli)
	return &recordReader{
		br:  bufio.NewReader(io.TeeReader(r, crc)),
		crc: crc,
	}
}

// Next returns the next record. The slice is reused by the following call.
// It returns io.EOF at a clean end of stream.
func (rr *recordReader) Next() ([]byte, error) {
	size, err := binary.ReadUvarint(rr.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("record of %d bytes exceeds limit %d", size, maxRecordSize)
	}

	if cap(rr.buf) < int(size) {
		rr.buf = make([]byte, size)
	}
	rr.buf = rr.buf[:size]
	if _, err := io.ReadFull(rr.br, rr.buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return rr.buf, nil
}

// Sum returns the checksum of everything consumed so far. Call it only after
// Next returned io.EOF.
func (rr *recordReader) Sum() uint32 {
	return rr.crc.Sum32()
}
