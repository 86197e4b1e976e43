// Package mnist decodes the IDX-format MNIST digit files and Keras-style
// mnist.npz bundles into matrices, and assembles training batches from
// them.
package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DylanMashini/genius-hour/nn"
)

const (
	imageMagic = 2051 // IDX ubyte image file
	labelMagic = 2049 // IDX ubyte label file

	// The fixed deployment target: 28x28 grayscale digits in ten classes.
	ImageWidth  = 28
	ImageHeight = 28
	NumPixels   = ImageWidth * ImageHeight
	NumClasses  = 10
)

// LoadImages reads an IDX image file (gzip-compressed if the path ends in
// .gz) and returns a (samples, 784) matrix with pixels scaled to [0, 1].
func LoadImages(path string) (*nn.Mat, error) {
	r, closeAll, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	var header struct {
		Magic uint32
		Count uint32
		Rows  uint32
		Cols  uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("while reading image header of %s: %w", path, err)
	}
	if header.Magic != imageMagic {
		return nil, fmt.Errorf("bad magic number %d in %s, want %d", header.Magic, path, imageMagic)
	}
	if header.Rows != ImageHeight || header.Cols != ImageWidth {
		return nil, fmt.Errorf("%s holds %dx%d images, want %dx%d", path, header.Rows, header.Cols, ImageHeight, ImageWidth)
	}

	out := nn.MakeMat(int(header.Count), NumPixels)
	raw := make([]byte, len(out.V))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("while reading pixel data of %s: %w", path, err)
	}
	for i, px := range raw {
		out.V[i] = float32(px) / 255
	}

	return out, nil
}

// LoadLabels reads an IDX label file (gzip-compressed if the path ends in
// .gz). With oneHot false the result is a (samples, 1) matrix of class
// indices; with oneHot true it is a (samples, 10) one-hot matrix. A label
// outside [0, 10) is a decode error.
func LoadLabels(path string, oneHot bool) (*nn.Mat, error) {
	r, closeAll, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	var header struct {
		Magic uint32
		Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("while reading label header of %s: %w", path, err)
	}
	if header.Magic != labelMagic {
		return nil, fmt.Errorf("bad magic number %d in %s, want %d", header.Magic, path, labelMagic)
	}

	raw := make([]byte, header.Count)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("while reading label data of %s: %w", path, err)
	}

	labels := nn.MakeMat(int(header.Count), 1)
	for i, b := range raw {
		if int(b) >= NumClasses {
			return nil, fmt.Errorf("label %d in %s out of range for %d classes", b, path, NumClasses)
		}
		labels.V[i] = float32(b)
	}

	if !oneHot {
		return labels, nil
	}
	return OneHot(labels, NumClasses)
}

func openMaybeGzip(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("while opening %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("while opening gzip stream of %s: %w", path, err)
	}
	return gz, func() error {
		gz.Close()
		return f.Close()
	}, nil
}
