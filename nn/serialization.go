package nn

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Weight-buffer layout, little-endian throughout:
//
//	magic   [4]byte "GHNN"
//	version uint32
//	layers  uint32
//	then per layer:
//	    rows       uint32               weight rows (layer input size)
//	    cols       uint32               weight cols (layer output size)
//	    weights    float32[rows*cols]   row-major
//	    bias       float32[cols]
//	    activation uint8
//
// The loss function is deliberately not part of the format; ReadNetwork
// takes it as an argument.

var weightMagic = [4]byte{'G', 'H', 'N', 'N'}

const weightVersion uint32 = 1

// maxWeightElems caps a single layer's weight allocation during decode, so
// a corrupt or truncated header cannot demand gigabytes.
const maxWeightElems = 1 << 28

// WriteNetwork encodes net's parameters (weights, biases, activation tags)
// to w. The encoding is lossless; ReadNetwork reconstructs a network whose
// forward pass is bit-identical.
func WriteNetwork(w io.Writer, net *Network) error {
	if _, err := w.Write(weightMagic[:]); err != nil {
		return fmt.Errorf("while writing magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, weightVersion); err != nil {
		return fmt.Errorf("while writing version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(net.Layers))); err != nil {
		return fmt.Errorf("while writing layer count: %w", err)
	}

	for l, lay := range net.Layers {
		if err := writeLayer(w, lay); err != nil {
			return fmt.Errorf("while writing layer %d: %w", l, err)
		}
	}

	return nil
}

func writeLayer(w io.Writer, lay *Layer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(lay.W.Rows)); err != nil {
		return fmt.Errorf("while writing weight rows: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(lay.W.Cols)); err != nil {
		return fmt.Errorf("while writing weight cols: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, lay.W.V); err != nil {
		return fmt.Errorf("while writing weights: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, lay.B); err != nil {
		return fmt.Errorf("while writing bias: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(lay.Activation)); err != nil {
		return fmt.Errorf("while writing activation tag: %w", err)
	}
	return nil
}

// ReadNetwork decodes a network written by WriteNetwork. The weight format
// does not record the loss function, so the caller must supply the one the
// network was trained with; a mismatch is undetectable here and silently
// changes training behavior.
func ReadNetwork(r io.Reader, loss LossFunction) (*Network, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("while reading magic: %w", err)
	}
	if magic != weightMagic {
		return nil, fmt.Errorf("bad magic %q, want %q", magic[:], weightMagic[:])
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("while reading version: %w", err)
	}
	if version != weightVersion {
		return nil, fmt.Errorf("unsupported weight format version %d", version)
	}

	var layerCount uint32
	if err := binary.Read(r, binary.LittleEndian, &layerCount); err != nil {
		return nil, fmt.Errorf("while reading layer count: %w", err)
	}

	net := NewNetwork(loss)
	for l := uint32(0); l < layerCount; l++ {
		lay, err := readLayer(r)
		if err != nil {
			return nil, fmt.Errorf("while reading layer %d: %w", l, err)
		}
		net.AddLayer(lay)
	}

	return net, nil
}

func readLayer(r io.Reader) (*Layer, error) {
	var rows, cols uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, fmt.Errorf("while reading weight rows: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return nil, fmt.Errorf("while reading weight cols: %w", err)
	}
	if rows == 0 || cols == 0 || uint64(rows)*uint64(cols) > maxWeightElems {
		return nil, fmt.Errorf("implausible weight shape (%d, %d)", rows, cols)
	}

	w := MakeMat(int(rows), int(cols))
	if err := binary.Read(r, binary.LittleEndian, w.V); err != nil {
		return nil, fmt.Errorf("while reading weights: %w", err)
	}
	b := make([]float32, cols)
	if err := binary.Read(r, binary.LittleEndian, b); err != nil {
		return nil, fmt.Errorf("while reading bias: %w", err)
	}
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return nil, fmt.Errorf("while reading activation tag: %w", err)
	}
	if Activation(tag) > Softmax {
		return nil, fmt.Errorf("unknown activation tag %d", tag)
	}

	return &Layer{
		Activation: Activation(tag),
		W:          w,
		B:          b,
		InputSize:  int(rows),
		OutputSize: int(cols),
	}, nil
}
