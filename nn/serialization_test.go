package nn

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testNetwork() *Network {
	r := rand.New(rand.NewSource(12345))
	net := NewNetwork(CrossEntropy)
	net.AddLayer(MakeDense(ReLU, 5, 4, r))
	net.AddLayer(MakeDense(Sigmoid, 4, 6, r))
	net.AddLayer(MakeDense(Linear, 6, 4, r))
	net.AddLayer(MakeDense(Softmax, 4, 3, r))
	return net
}

func TestWeightRoundTrip(t *testing.T) {
	net := testNetwork()

	buf := &bytes.Buffer{}
	if err := WriteNetwork(buf, net); err != nil {
		t.Fatalf("WriteNetwork: %v", err)
	}

	got, err := ReadNetwork(bytes.NewReader(buf.Bytes()), CrossEntropy)
	if err != nil {
		t.Fatalf("ReadNetwork: %v", err)
	}

	if got.Loss != net.Loss {
		t.Errorf("loss came back as %v, want %v", got.Loss, net.Loss)
	}
	if len(got.Layers) != len(net.Layers) {
		t.Fatalf("got %d layers, want %d", len(got.Layers), len(net.Layers))
	}
	for l := range net.Layers {
		if got.Layers[l].Activation != net.Layers[l].Activation {
			t.Errorf("layer %d activation is %v, want %v", l, got.Layers[l].Activation, net.Layers[l].Activation)
		}
		if diff := cmp.Diff(got.Layers[l].W, net.Layers[l].W); diff != "" {
			t.Errorf("layer %d weights; diff (-got +want)\n%s", l, diff)
		}
		if diff := cmp.Diff(got.Layers[l].B, net.Layers[l].B); diff != "" {
			t.Errorf("layer %d biases; diff (-got +want)\n%s", l, diff)
		}
	}

	// The decoded network must predict bit-identically.
	r := rand.New(rand.NewSource(12345))
	x := MakeMat(2, 5)
	for i := range x.V {
		x.V[i] = float32(r.NormFloat64())
	}
	if diff := cmp.Diff(got.Apply(x), net.Apply(x)); diff != "" {
		t.Errorf("Wrong output; diff (-got +want)\n%s", diff)
	}

	// And re-encode to the same bytes.
	buf2 := &bytes.Buffer{}
	if err := WriteNetwork(buf2, got); err != nil {
		t.Fatalf("WriteNetwork (round 2): %v", err)
	}
	if !bytes.Equal(buf.Bytes(), buf2.Bytes()) {
		t.Errorf("re-encoding produced different bytes")
	}
}

func TestWeightRoundTripEmptyNetwork(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteNetwork(buf, NewNetwork(MeanSquaredError)); err != nil {
		t.Fatalf("WriteNetwork: %v", err)
	}

	got, err := ReadNetwork(bytes.NewReader(buf.Bytes()), MeanSquaredError)
	if err != nil {
		t.Fatalf("ReadNetwork: %v", err)
	}
	if len(got.Layers) != 0 {
		t.Errorf("got %d layers, want 0", len(got.Layers))
	}
}

func TestReadNetworkRejectsCorruptStreams(t *testing.T) {
	valid := &bytes.Buffer{}
	if err := WriteNetwork(valid, testNetwork()); err != nil {
		t.Fatalf("WriteNetwork: %v", err)
	}

	corrupt := func(mutate func(b []byte) []byte) []byte {
		b := append([]byte(nil), valid.Bytes()...)
		return mutate(b)
	}

	testcases := []struct {
		name    string
		data    []byte
		wantSub string
	}{
		{
			name:    "bad magic",
			data:    corrupt(func(b []byte) []byte { b[0] = 'X'; return b }),
			wantSub: "magic",
		},
		{
			name:    "unsupported version",
			data:    corrupt(func(b []byte) []byte { b[4] = 99; return b }),
			wantSub: "version",
		},
		{
			name: "implausible weight shape",
			data: corrupt(func(b []byte) []byte {
				b[12], b[13], b[14], b[15] = 0xFF, 0xFF, 0xFF, 0xFF
				return b
			}),
			wantSub: "implausible",
		},
		{
			name: "unknown activation tag",
			data: corrupt(func(b []byte) []byte {
				b[len(b)-1] = 77
				return b
			}),
			wantSub: "activation",
		},
		{
			name:    "truncated stream",
			data:    corrupt(func(b []byte) []byte { return b[:len(b)-5] }),
			wantSub: "layer",
		},
		{
			name:    "empty stream",
			data:    nil,
			wantSub: "magic",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadNetwork(bytes.NewReader(tc.data), CrossEntropy)
			if err == nil {
				t.Fatalf("decode succeeded on a corrupt stream")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}
