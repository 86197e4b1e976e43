// Command mnist trains and runs the digit-classification network.
//
// To train from the raw IDX files: `go run ./cmd/mnist train --train-images=mnist/train-images.idx3-ubyte --train-labels=mnist/train-labels.idx1-ubyte`
//
// To train from a Keras-style bundle: `go run ./cmd/mnist train --data-file=mnist.npz`
//
// To infer: `go run ./cmd/mnist infer --weights=mnist-out.weights --image=five.png`
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime/pprof"

	"github.com/chewxy/math32"
	"github.com/google/subcommands"

	"github.com/DylanMashini/genius-hour/mnist"
	"github.com/DylanMashini/genius-hour/nn"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&TrainCommand{}, "")
	subcommands.Register(&EvalCommand{}, "")
	subcommands.Register(&InferCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

type TrainCommand struct {
	dataFile string

	trainImages string
	trainLabels string
	testImages  string
	testLabels  string

	epochs       int
	learningRate float64
	batchSize    int

	fromWeightFile   string
	outputWeightFile string

	cpuProfileFile string
}

var _ subcommands.Command = (*TrainCommand)(nil)

func (*TrainCommand) Name() string {
	return "train"
}

func (*TrainCommand) Synopsis() string {
	return "Train the model"
}

func (*TrainCommand) Usage() string {
	return ``
}

func (c *TrainCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataFile, "data-file", "", "Path to a Keras-style mnist.npz bundle; overrides the IDX flags")

	f.StringVar(&c.trainImages, "train-images", "mnist/train-images.idx3-ubyte", "Path to the IDX training images")
	f.StringVar(&c.trainLabels, "train-labels", "mnist/train-labels.idx1-ubyte", "Path to the IDX training labels")
	f.StringVar(&c.testImages, "test-images", "mnist/t10k-images.idx3-ubyte", "Path to the IDX test images")
	f.StringVar(&c.testLabels, "test-labels", "mnist/t10k-labels.idx1-ubyte", "Path to the IDX test labels")

	f.IntVar(&c.epochs, "epochs", 30, "Number of passes over the training set")
	f.Float64Var(&c.learningRate, "learning-rate", 0.01, "SGD learning rate")
	f.IntVar(&c.batchSize, "batch-size", 64, "Samples per SGD step")

	f.StringVar(&c.fromWeightFile, "from-weights", "", "Path to initial weights to resume training from")
	f.StringVar(&c.outputWeightFile, "output-weight-file", "mnist-out.weights", "Path to save trained weights")

	f.StringVar(&c.cpuProfileFile, "cpu-profile", "", "Write a CPU profile")
}

func (c *TrainCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *TrainCommand) executeErr(ctx context.Context) error {
	if c.cpuProfileFile != "" {
		f, err := os.Create(c.cpuProfileFile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}
	if c.batchSize <= 0 {
		return fmt.Errorf("batch size %d is not positive", c.batchSize)
	}

	xTrain, yTrain, xTest, yTest, err := c.loadDataset()
	if err != nil {
		return fmt.Errorf("while loading MNIST data set: %w", err)
	}

	r := rand.New(rand.NewSource(12345))

	var net *nn.Network
	if c.fromWeightFile != "" {
		net, err = readWeightFile(c.fromWeightFile)
		if err != nil {
			return fmt.Errorf("while loading initial weights: %w", err)
		}
	} else {
		net = nn.NewNetwork(nn.CrossEntropy)
		net.AddLayer(nn.MakeDense(nn.ReLU, mnist.NumPixels, 128, r))
		net.AddLayer(nn.MakeDense(nn.ReLU, 128, 64, r))
		net.AddLayer(nn.MakeDense(nn.Softmax, 64, mnist.NumClasses, r))
	}

	targets, err := mnist.OneHot(yTrain, mnist.NumClasses)
	if err != nil {
		return fmt.Errorf("while one-hot encoding training labels: %w", err)
	}

	log.Printf("training on %d samples, evaluating on %d (epochs=%d learning-rate=%g batch-size=%d loss=%v)",
		xTrain.Rows, xTest.Rows, c.epochs, c.learningRate, c.batchSize, net.Loss)

	indices := make([]int, xTrain.Rows)
	for i := range indices {
		indices[i] = i
	}

	for epoch := 0; epoch < c.epochs; epoch++ {
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		var epochLoss float32
		batches := 0
		for start := 0; start < len(indices); start += c.batchSize {
			end := min(start+c.batchSize, len(indices))
			bx, by := mnist.MiniBatch(xTrain, targets, indices[start:end])
			epochLoss += net.TrainBatch(bx, by, float32(c.learningRate))
			batches++
			if batches%100 == 0 {
				fmt.Print(".")
			}
		}
		fmt.Println()

		if err := writeWeightFile(c.outputWeightFile, net); err != nil {
			return fmt.Errorf("while writing checkpoint: %w", err)
		}

		testLoss, testAccuracy, err := evaluate(net, xTest, yTest)
		if err != nil {
			return fmt.Errorf("while evaluating on the test set: %w", err)
		}
		log.Printf("epoch %d avg-batch-loss=%f test-loss=%f test-accuracy=%.2f%%",
			epoch, epochLoss/float32(batches), testLoss, testAccuracy*100)
	}

	return nil
}

func (c *TrainCommand) loadDataset() (xTrain, yTrain, xTest, yTest *nn.Mat, err error) {
	if c.dataFile != "" {
		return mnist.LoadNPZ(c.dataFile)
	}

	xTrain, err = mnist.LoadImages(c.trainImages)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	yTrain, err = mnist.LoadLabels(c.trainLabels, false)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	xTest, err = mnist.LoadImages(c.testImages)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	yTest, err = mnist.LoadLabels(c.testLabels, false)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return xTrain, yTrain, xTest, yTest, nil
}

// evaluate runs the cache-free inference path over a labeled set and
// reports the loss plus arg-max accuracy. labels are raw class indices.
func evaluate(net *nn.Network, images, labels *nn.Mat) (loss float32, accuracy float32, err error) {
	oneHot, err := mnist.OneHot(labels, mnist.NumClasses)
	if err != nil {
		return 0, 0, err
	}

	pred := net.Apply(images)
	loss = net.Loss.Calculate(pred, oneHot)

	if pred.Rows == 0 {
		return loss, 0, nil
	}

	correct := 0
	for k := 0; k < pred.Rows; k++ {
		digit := 0
		score := math32.Inf(-1)
		for i := 0; i < pred.Cols; i++ {
			if pred.At(k, i) > score {
				digit = i
				score = pred.At(k, i)
			}
		}

		if float32(digit) == labels.At(k, 0) {
			correct++
		}
	}

	return loss, float32(correct) / float32(pred.Rows), nil
}

func readWeightFile(path string) (*nn.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening weight file: %w", err)
	}
	defer f.Close()

	net, err := nn.ReadNetwork(f, nn.CrossEntropy)
	if err != nil {
		return nil, fmt.Errorf("while decoding %s: %w", path, err)
	}
	return net, nil
}

func writeWeightFile(path string, net *nn.Network) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating weight file: %w", err)
	}
	defer f.Close()

	if err := nn.WriteNetwork(f, net); err != nil {
		return fmt.Errorf("while encoding network: %w", err)
	}
	return nil
}
