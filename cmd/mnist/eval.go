package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"

	"github.com/DylanMashini/genius-hour/mnist"
)

type EvalCommand struct {
	weightsFile string

	testImages string
	testLabels string
}

var _ subcommands.Command = (*EvalCommand)(nil)

func (*EvalCommand) Name() string {
	return "eval"
}

func (*EvalCommand) Synopsis() string {
	return "Report loss and accuracy of saved weights on a test set"
}

func (*EvalCommand) Usage() string {
	return ``
}

func (c *EvalCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weightsFile, "weights", "mnist-out.weights", "Path to the weights produced by the train command")
	f.StringVar(&c.testImages, "test-images", "mnist/t10k-images.idx3-ubyte", "Path to the IDX test images")
	f.StringVar(&c.testLabels, "test-labels", "mnist/t10k-labels.idx1-ubyte", "Path to the IDX test labels")
}

func (c *EvalCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *EvalCommand) executeErr(ctx context.Context) error {
	net, err := readWeightFile(c.weightsFile)
	if err != nil {
		return fmt.Errorf("while loading weights: %w", err)
	}

	images, err := mnist.LoadImages(c.testImages)
	if err != nil {
		return fmt.Errorf("while loading test images: %w", err)
	}
	labels, err := mnist.LoadLabels(c.testLabels, false)
	if err != nil {
		return fmt.Errorf("while loading test labels: %w", err)
	}

	loss, accuracy, err := evaluate(net, images, labels)
	if err != nil {
		return fmt.Errorf("while evaluating: %w", err)
	}

	log.Printf("samples=%d loss=%f accuracy=%.2f%%", images.Rows, loss, accuracy*100)
	return nil
}
