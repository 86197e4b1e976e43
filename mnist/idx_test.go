package mnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DylanMashini/genius-hour/nn"
)

func idxImageBytes(t *testing.T, magic, rows, cols uint32, images [][]byte) []byte {
	buf := &bytes.Buffer{}
	for _, v := range []uint32{magic, uint32(len(images)), rows, cols} {
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			t.Fatalf("building image fixture: %v", err)
		}
	}
	for _, img := range images {
		buf.Write(img)
	}
	return buf.Bytes()
}

func idxLabelBytes(t *testing.T, magic uint32, labels []byte) []byte {
	buf := &bytes.Buffer{}
	for _, v := range []uint32{magic, uint32(len(labels))} {
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			t.Fatalf("building label fixture: %v", err)
		}
	}
	buf.Write(labels)
	return buf.Bytes()
}

// writeFixture drops data into a temp file, gzip-compressing it when the
// name carries a .gz suffix (the loaders key off the same suffix).
func writeFixture(t *testing.T, name string, data []byte) string {
	if strings.HasSuffix(name, ".gz") {
		buf := &bytes.Buffer{}
		gz := gzip.NewWriter(buf)
		if _, err := gz.Write(data); err != nil {
			t.Fatalf("compressing fixture: %v", err)
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("compressing fixture: %v", err)
		}
		data = buf.Bytes()
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func twoTestImages() [][]byte {
	img0 := make([]byte, NumPixels)
	img0[0] = 255
	img0[1] = 128
	img1 := make([]byte, NumPixels)
	img1[NumPixels-1] = 51
	return [][]byte{img0, img1}
}

func TestLoadImages(t *testing.T) {
	path := writeFixture(t, "train-images.idx3-ubyte",
		idxImageBytes(t, imageMagic, ImageHeight, ImageWidth, twoTestImages()))

	got, err := LoadImages(path)
	if err != nil {
		t.Fatalf("LoadImages: %v", err)
	}

	if got.Rows != 2 || got.Cols != NumPixels {
		t.Fatalf("got a (%d, %d) matrix, want (2, %d)", got.Rows, got.Cols, NumPixels)
	}
	checks := []struct {
		row, col int
		want     float32
	}{
		{0, 0, 1},
		{0, 1, float32(128) / 255},
		{0, 2, 0},
		{1, NumPixels - 1, float32(51) / 255},
		{1, 0, 0},
	}
	for _, c := range checks {
		if got.At(c.row, c.col) != c.want {
			t.Errorf("pixel (%d, %d) is %v, want %v", c.row, c.col, got.At(c.row, c.col), c.want)
		}
	}
}

func TestLoadImagesGzip(t *testing.T) {
	path := writeFixture(t, "train-images.idx3-ubyte.gz",
		idxImageBytes(t, imageMagic, ImageHeight, ImageWidth, twoTestImages()))

	got, err := LoadImages(path)
	if err != nil {
		t.Fatalf("LoadImages: %v", err)
	}
	if got.Rows != 2 || got.Cols != NumPixels {
		t.Fatalf("got a (%d, %d) matrix, want (2, %d)", got.Rows, got.Cols, NumPixels)
	}
	if got.At(0, 0) != 1 {
		t.Errorf("pixel (0, 0) is %v, want 1", got.At(0, 0))
	}
}

func TestLoadImagesBadMagic(t *testing.T) {
	path := writeFixture(t, "bad.idx3-ubyte",
		idxImageBytes(t, 1234, ImageHeight, ImageWidth, twoTestImages()))

	if _, err := LoadImages(path); err == nil || !strings.Contains(err.Error(), "magic") {
		t.Errorf("got %v, want a bad-magic error", err)
	}
}

func TestLoadImagesWrongDimensions(t *testing.T) {
	img := make([]byte, 27*28)
	path := writeFixture(t, "small.idx3-ubyte",
		idxImageBytes(t, imageMagic, 27, 28, [][]byte{img}))

	if _, err := LoadImages(path); err == nil || !strings.Contains(err.Error(), "27x28") {
		t.Errorf("got %v, want a wrong-dimensions error", err)
	}
}

func TestLoadImagesTruncated(t *testing.T) {
	full := idxImageBytes(t, imageMagic, ImageHeight, ImageWidth, twoTestImages())
	path := writeFixture(t, "short.idx3-ubyte", full[:len(full)-NumPixels])

	if _, err := LoadImages(path); err == nil || !strings.Contains(err.Error(), "pixel data") {
		t.Errorf("got %v, want a truncation error", err)
	}
}

func TestLoadLabels(t *testing.T) {
	path := writeFixture(t, "labels.idx1-ubyte", idxLabelBytes(t, labelMagic, []byte{0, 3, 9}))

	got, err := LoadLabels(path, false)
	if err != nil {
		t.Fatalf("LoadLabels: %v", err)
	}

	want := nn.MatFromRows([][]float32{{0}, {3}, {9}})
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Wrong output; diff (-got +want)\n%s", diff)
	}
}

func TestLoadLabelsOneHot(t *testing.T) {
	path := writeFixture(t, "labels.idx1-ubyte", idxLabelBytes(t, labelMagic, []byte{0, 3}))

	got, err := LoadLabels(path, true)
	if err != nil {
		t.Fatalf("LoadLabels: %v", err)
	}

	want := nn.MatFromRows([][]float32{
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 1, 0, 0, 0, 0, 0, 0},
	})
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Wrong output; diff (-got +want)\n%s", diff)
	}
}

func TestLoadLabelsOutOfRange(t *testing.T) {
	path := writeFixture(t, "labels.idx1-ubyte", idxLabelBytes(t, labelMagic, []byte{2, 10}))

	if _, err := LoadLabels(path, false); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("got %v, want an out-of-range error", err)
	}
}
