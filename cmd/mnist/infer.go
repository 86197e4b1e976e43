package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/chewxy/math32"
	"github.com/google/subcommands"

	"github.com/DylanMashini/genius-hour/inference"
	"github.com/DylanMashini/genius-hour/mnist"

	_ "image/jpeg"
	_ "image/png"
)

type InferCommand struct {
	weightsFile string
	imageFile   string
}

var _ subcommands.Command = (*InferCommand)(nil)

func (*InferCommand) Name() string {
	return "infer"
}

func (*InferCommand) Synopsis() string {
	return "Classify one image using saved model weights"
}

func (*InferCommand) Usage() string {
	return ``
}

func (c *InferCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weightsFile, "weights", "mnist-out.weights", "Path to the weights produced by the train command")
	f.StringVar(&c.imageFile, "image", "", "Path to the image to classify")
}

func (c *InferCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *InferCommand) executeErr(ctx context.Context) error {
	net, err := readWeightFile(c.weightsFile)
	if err != nil {
		return fmt.Errorf("while loading weights: %w", err)
	}
	classifier := inference.New(net)

	pixels, err := c.loadImage()
	if err != nil {
		return fmt.Errorf("while loading image: %w", err)
	}

	probs, err := classifier.Predict(pixels)
	if err != nil {
		return fmt.Errorf("while classifying: %w", err)
	}

	digit := 0
	score := math32.Inf(-1)
	for i, p := range probs {
		if p > score {
			digit = i
			score = p
		}
	}

	log.Printf("Prediction: %d (p=%.3f)", digit, score)
	return nil
}

func (c *InferCommand) loadImage() ([]float32, error) {
	f, err := os.Open(c.imageFile)
	if err != nil {
		return nil, fmt.Errorf("while opening image file: %w", err)
	}
	defer f.Close()

	rawImg, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("while decoding image: %w", err)
	}

	bounds := rawImg.Bounds()
	if bounds.Dx() != mnist.ImageWidth || bounds.Dy() != mnist.ImageHeight {
		return nil, fmt.Errorf("image is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), mnist.ImageWidth, mnist.ImageHeight)
	}

	pixels := make([]float32, mnist.NumPixels)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float32(color.GrayModel.Convert(rawImg.At(x, y)).(color.Gray).Y) / float32(256)
			pixels[(y-bounds.Min.Y)*mnist.ImageWidth+(x-bounds.Min.X)] = v
		}
	}

	return pixels, nil
}
