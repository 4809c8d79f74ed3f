// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers (unsigned byte payload).
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

type idxImages struct {
	rows, cols int
	pixels     [][]byte
}

// openData opens name, falling back to name+".gz" and decompressing it
// when the plain file does not exist.
func openData(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	gzf, gzErr := os.Open(name + ".gz")
	if gzErr != nil {
		// Report the uncompressed name the caller asked for.
		return nil, err
	}
	zr, err := gzip.NewReader(bufio.NewReader(gzf))
	if err != nil {
		gzf.Close()
		return nil, fmt.Errorf("gunzip %s.gz: %w", name, err)
	}
	return &gzipFile{Reader: zr, file: gzf}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// readIDXImages reads an IDX3 image file.
//
//	magic number: 0x00000803 (2051)
//	number of images, rows, cols: 4 bytes each, big endian
//	pixel data: unsigned bytes (0-255)
func readIDXImages(r io.Reader, limit int) (*idxImages, error) {
	br := bufio.NewReader(r)

	var header [4]uint32
	if err := binary.Read(br, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != idxImagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header[0], idxImagesMagic)
	}

	count := int(header[1])
	if limit > 0 && count > limit {
		count = limit
	}
	out := &idxImages{rows: int(header[2]), cols: int(header[3])}
	size := out.rows * out.cols
	if size <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", out.rows, out.cols)
	}

	out.pixels = make([][]byte, count)
	for i := range out.pixels {
		out.pixels[i] = make([]byte, size)
		if _, err := io.ReadFull(br, out.pixels[i]); err != nil {
			return nil, fmt.Errorf("read image %d: %w", i, err)
		}
	}
	return out, nil
}

// readIDXLabels reads an IDX1 label file.
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes, big endian
//	label data: unsigned bytes
func readIDXLabels(r io.Reader, limit int) ([]byte, error) {
	br := bufio.NewReader(r)

	var header [2]uint32
	if err := binary.Read(br, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header[0], idxLabelsMagic)
	}

	count := int(header[1])
	if limit > 0 && count > limit {
		count = limit
	}
	labels := make([]byte, count)
	if _, err := io.ReadFull(br, labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}
