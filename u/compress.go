package u

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression names a compression format for whole blobs of data
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionZstd   Compression = "zstd"
	CompressionBrotli Compression = "brotli"
)

// Ext returns file extension (with dot) for compressed data, "" for none
func (c Compression) Ext() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionBrotli:
		return ".br"
	}
	return ""
}

func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "brotli", "br":
		return CompressionBrotli, nil
	}
	return "", fmt.Errorf("unknown compression '%s', must be one of: none, zstd, brotli", s)
}

// CompressionFromFileName picks compression based on file extension
// TODO: could sniff data instead of checking file extension
func CompressionFromFileName(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".br":
		return CompressionBrotli
	}
	return CompressionNone
}

func getErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func Compress(d []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone, "":
		return d, nil
	case CompressionZstd:
		return ZstdCompressData(d)
	case CompressionBrotli:
		return BrCompressDataBest(d)
	}
	return nil, fmt.Errorf("unknown compression '%s'", c)
}

func Decompress(d []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone, "":
		return d, nil
	case CompressionZstd:
		return ZstdDecompressData(d)
	case CompressionBrotli:
		return BrDecompressData(d)
	}
	return nil, fmt.Errorf("unknown compression '%s'", c)
}

func BrCompressData(d []byte, level int) ([]byte, error) {
	var dst bytes.Buffer
	w := brotli.NewWriterLevel(&dst, level)
	_, err := w.Write(d)
	err2 := w.Close()
	if err = getErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func BrCompressDataBest(d []byte) ([]byte, error) {
	return BrCompressData(d, brotli.BestCompression)
}

func BrDecompressData(d []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(d)))
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// zstd.SpeedBestCompression is much slower and not much better
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func ZstdCompressData(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w, err := zstdNewWriter(&dst)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = getErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func ZstdDecompressData(d []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(d))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// ZipData creates a zip archive with files. files maps name in the archive
// to content. names are written in the order given by names.
func ZipData(names []string, files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		d, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("missing content for '%s'", name)
		}
		// per zip.Writer.Create(), name must be slash-separated
		w, err := zw.Create(filepath.ToSlash(name))
		if err != nil {
			return nil, err
		}
		if _, err = w.Write(d); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func IterZipData(zipData []byte, cb func(f *zip.File, data []byte) error) error {
	r, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return err
	}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return err
		}
		d, err := io.ReadAll(rc)
		err2 := rc.Close()
		if err = getErr(err, err2); err != nil {
			return err
		}
		if err = cb(f, d); err != nil {
			return err
		}
	}
	return nil
}

func ReadZipData(zipData []byte) (map[string][]byte, error) {
	res := map[string][]byte{}
	err := IterZipData(zipData, func(f *zip.File, data []byte) error {
		res[f.Name] = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
