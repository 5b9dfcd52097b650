package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/net"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	// XOR cannot be solved by a single-layer perceptron but can be solved
	// with one hidden layer.
	widths := []int{2, 3, 2}
	fmt.Printf("Network architecture: %v\n", widths)
	fmt.Println("Activation functions: ReLU (hidden), Softmax (output)")
	fmt.Println("Loss function: cross entropy")

	network, err := net.New(widths, net.WithSeed(42))
	if err != nil {
		fmt.Printf("Error building network: %v\n", err)
		return
	}

	// XOR training data, one-hot over {0, 1}
	base := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	labels := [][]float64{{1, 0}, {0, 1}, {0, 1}, {1, 0}}
	var trainX, trainY [][]float64
	for i := 0; i < 50; i++ {
		trainX = append(trainX, base...)
		trainY = append(trainY, labels...)
	}

	res, err := network.Train(trainX, trainY, net.TrainConfig{
		TrainRatio:        0.8,
		Epochs:            500,
		BatchSize:         4,
		LearningRate:      0.5,
		LearningRateDecay: 0.9,
		Callbacks:         []net.Callback{net.Logger{Interval: 100}},
	})
	if err != nil {
		fmt.Printf("Error training network: %v\n", err)
		return
	}
	fmt.Printf("Held-out cost %.6f, hits %.1f%%\n", res.AverageCost, res.HitPercentage)

	// Test the network
	fmt.Println("\nTesting trained network:")
	for i := range base {
		pred, err := network.Predict(base[i])
		if err != nil {
			fmt.Printf("Error predicting: %v\n", err)
			return
		}
		fmt.Printf("Input: %v, P(1): %.4f, Target: %v\n", base[i], pred[1], labels[i][1])
	}

	// Save the trained network
	path := filepath.Join(os.TempDir(), "xor_network.bin")
	fmt.Println("\nSaving network to disk...")
	if err := network.Save(path); err != nil {
		fmt.Printf("Error saving network: %v\n", err)
		return
	}
	defer os.Remove(path)

	// Load the network back
	loaded, err := net.Load(path)
	if err != nil {
		fmt.Printf("Error loading network: %v\n", err)
		return
	}

	// Verify loaded network produces same predictions
	batch, _ := matrix.FromSlice(4, 2, []float64{
		0, 0, 1, 1,
		0, 1, 0, 1,
	})
	original, _ := network.Forward(batch)
	reloaded, _ := loaded.Forward(batch)
	if original.EqualApprox(reloaded, 1e-12) && !math.IsNaN(original.At(0, 0)) {
		fmt.Println("SUCCESS: All predictions match between original and loaded network!")
	} else {
		fmt.Println("FAILURE: Predictions differ between original and loaded network!")
	}
}
