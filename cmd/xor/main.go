// Command xor trains a tiny network on the XOR truth table, the smallest
// problem that needs a hidden layer.
package main

import (
	"flag"
	"log"
	"math/rand"

	"github.com/DylanMashini/genius-hour/nn"
)

func main() {
	steps := flag.Int("steps", 5000, "Number of full-batch SGD steps")
	learningRate := flag.Float64("learning-rate", 0.5, "SGD learning rate")
	flag.Parse()

	inputs := nn.MatFromRows([][]float32{{0, 0}, {0, 1}, {1, 0}, {1, 1}})
	targets := nn.MatFromRows([][]float32{{0}, {1}, {1}, {0}})

	r := rand.New(rand.NewSource(12345))

	net := nn.NewNetwork(nn.MeanSquaredError)
	net.AddLayer(nn.MakeDense(nn.ReLU, 2, 4, r))
	net.AddLayer(nn.MakeDense(nn.Sigmoid, 4, 1, r))

	for step := 0; step < *steps; step++ {
		loss := net.TrainBatch(inputs, targets, float32(*learningRate))
		if step%500 == 0 {
			log.Printf("step=%d loss=%v", step, loss)
		}
	}

	pred := net.Apply(inputs)
	for k := 0; k < inputs.Rows; k++ {
		log.Printf("%g xor %g -> %.3f", inputs.At(k, 0), inputs.At(k, 1), pred.At(k, 0))
	}
}
