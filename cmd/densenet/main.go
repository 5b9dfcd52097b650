// Command densenet trains a dense classifier and runs saved weights.
//
//	densenet train   -config run.yaml [-images ... -labels ...] [-out weights.bin]
//	densenet predict -weights weights.bin (-data test.csv | -images ... -labels ... | -input 0.1,0.2,...)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/densenet/internal/config"
	"github.com/FlavioCFOliveira/densenet/internal/dataset"
	"github.com/FlavioCFOliveira/densenet/internal/net"
	"github.com/FlavioCFOliveira/densenet/internal/parallel"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: densenet <train|predict> [flags]")
	fmt.Fprintln(os.Stderr, "run 'densenet <command> -h' for the flags of a command")
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("densenet: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "train":
		runTrain(os.Args[2:])
	case "predict":
		runPredict(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
}

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (defaults apply when empty)")
	widths := fs.String("widths", "", "Override layer widths, e.g. 784,512,10")
	epochs := fs.Int("epochs", 0, "Number of epochs")
	batchSize := fs.Int("batch-size", 0, "Batch size")
	lr := fs.Float64("lr", 0, "Initial learning rate")
	seed := fs.Uint64("seed", 0, "PRNG seed (0 picks one at random)")
	logEvery := fs.Int("log-every", 0, "Log every N epochs")
	workers := fs.Int("workers", 0, "Goroutines used by matrix products")
	data := fs.String("data", "", "CSV training data")
	images := fs.String("images", "", "IDX image file")
	labels := fs.String("labels", "", "IDX label file")
	limit := fs.Int("limit", 0, "Use at most N samples")
	out := fs.String("out", "", "Where to write the trained weights")
	fs.Parse(args)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	w, err := config.ParseWidths(*widths)
	if err != nil {
		log.Fatalf("invalid -widths: %v", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		Widths:       w,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *lr,
		Seed:         *seed,
		LogEvery:     *logEvery,
		Workers:      *workers,
		DataPath:     *data,
		Images:       *images,
		Labels:       *labels,
		Limit:        *limit,
		Weights:      *out,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if cfg.Workers > 0 {
		parallel.Default.Workers = cfg.Workers
	}

	ds, err := loadData(cfg.Data)
	if err != nil {
		log.Fatalf("load data: %v", err)
	}
	log.Printf("data loaded: samples=%d features=%d", ds.Len(), len(ds.Inputs[0]))

	opts := []net.Option{net.WithLogger(log.Default())}
	if cfg.Seed != 0 {
		opts = append(opts, net.WithSeed(cfg.Seed))
	}
	n, err := net.New(cfg.Widths, opts...)
	if err != nil {
		log.Fatalf("build network: %v", err)
	}
	n.Summary(os.Stdout)

	callbacks := []net.Callback{net.Logger{Interval: cfg.LogEvery}}
	if cfg.MetricsCSV != "" {
		callbacks = append(callbacks, net.NewCSVLogger(cfg.MetricsCSV, false))
	}
	var ckpt *net.ModelCheckpoint
	if cfg.Checkpoint != "" {
		ckpt = net.NewModelCheckpoint(cfg.Checkpoint)
		callbacks = append(callbacks, ckpt)
	}
	if cfg.EarlyStopPatience > 0 {
		callbacks = append(callbacks, net.NewEarlyStopping(cfg.EarlyStopPatience, 1e-4))
	}

	res, err := n.Train(ds.Inputs, ds.Targets, net.TrainConfig{
		TrainRatio:        cfg.TrainRatio,
		Epochs:            cfg.Epochs,
		BatchSize:         cfg.BatchSize,
		LearningRate:      cfg.LearningRate,
		LearningRateDecay: cfg.LearningRateDecay,
		Callbacks:         callbacks,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	if ckpt != nil && ckpt.Err != nil {
		log.Printf("checkpointing failed: %v", ckpt.Err)
	}

	fmt.Printf("average cost: %.6f\n", res.AverageCost)
	fmt.Printf("max cost:     %.6f\n", res.MaxCost)
	fmt.Printf("min cost:     %.6f\n", res.MinCost)
	fmt.Printf("hits:         %.2f%% (%d/%d)\n", res.HitPercentage, res.Hits, res.Samples)

	if err := n.Save(cfg.Weights); err != nil {
		log.Fatalf("save weights: %v", err)
	}
	log.Printf("weights written to %s", cfg.Weights)
}

func runPredict(args []string) {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	weights := fs.String("weights", "weights.bin", "Weights written by train")
	data := fs.String("data", "", "CSV samples to evaluate")
	labelColumn := fs.Int("label-column", -1, "CSV label column, negative counts from the end")
	header := fs.Bool("header", false, "CSV has a header row")
	scale := fs.Float64("scale", 0, "Divide CSV features by this value")
	images := fs.String("images", "", "IDX image file to evaluate")
	labels := fs.String("labels", "", "IDX label file to evaluate")
	input := fs.String("input", "", "Comma separated features of a single sample")
	center := fs.Int("center", 0, "Treat -input as a square image of this side and center the digit")
	fs.Parse(args)

	n, err := net.Load(*weights)
	if err != nil {
		log.Fatalf("load weights: %v", err)
	}
	classes := n.OutputWidth()

	switch {
	case *input != "":
		features, err := parseFloats(*input)
		if err != nil {
			log.Fatalf("invalid -input: %v", err)
		}
		if *center > 0 {
			if features, err = dataset.CenterDigit(features, *center, *center, dataset.DigitBox); err != nil {
				log.Fatalf("center input: %v", err)
			}
		}
		probs, err := n.Predict(features)
		if err != nil {
			log.Fatalf("predict: %v", err)
		}
		for i, p := range probs {
			fmt.Printf("%d: %.4f\n", i, p)
		}
		fmt.Printf("prediction: %d\n", floats.MaxIdx(probs))

	case *data != "" || *images != "":
		ds, err := loadData(config.Data{
			Format:      formatOf(*data),
			Path:        *data,
			LabelColumn: *labelColumn,
			HasHeader:   *header,
			Scale:       *scale,
			Images:      *images,
			Labels:      *labels,
			Classes:     classes,
		})
		if err != nil {
			log.Fatalf("load data: %v", err)
		}
		res, err := n.Evaluate(ds.Inputs, ds.Targets)
		if err != nil {
			log.Fatalf("evaluate: %v", err)
		}
		fmt.Printf("average cost: %.6f\n", res.AverageCost)
		fmt.Printf("max cost:     %.6f\n", res.MaxCost)
		fmt.Printf("min cost:     %.6f\n", res.MinCost)
		fmt.Printf("hits:         %.2f%% (%d/%d)\n", res.HitPercentage, res.Hits, res.Samples)

	default:
		log.Fatal("predict needs -input, -data or -images/-labels")
	}
}

func formatOf(csvPath string) string {
	if csvPath != "" {
		return config.FormatCSV
	}
	return config.FormatIDX
}

func loadData(c config.Data) (*dataset.Dataset, error) {
	var (
		ds  *dataset.Dataset
		err error
	)
	switch c.Format {
	case config.FormatCSV:
		ds, err = dataset.LoadCSV(c.Path, dataset.CSVOptions{
			LabelColumn: c.LabelColumn,
			Classes:     c.Classes,
			HasHeader:   c.HasHeader,
			Scale:       c.Scale,
		})
	case config.FormatIDX:
		ds, err = dataset.LoadIDX(c.Images, c.Labels, c.Classes)
	default:
		err = fmt.Errorf("unknown data format %q", c.Format)
	}
	if err != nil {
		return nil, err
	}
	ds.Limit(c.Limit)
	if c.Normalize {
		ds.Normalize()
	}
	return ds, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
