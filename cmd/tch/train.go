package main

import (
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/nilslice/tch-go/autodiff"
	"github.com/nilslice/tch-go/backend/cpu"
	"github.com/nilslice/tch-go/backend/webgpu"
	"github.com/nilslice/tch-go/internal/config"
	"github.com/nilslice/tch-go/internal/dataset/mnist"
	"github.com/nilslice/tch-go/internal/dataset/sentiment"
	"github.com/nilslice/tch-go/nn"
	"github.com/nilslice/tch-go/optim"
	"github.com/nilslice/tch-go/rl"
	"github.com/nilslice/tch-go/tensor"
)

func runTrain(args []string) int {
	// Accept the task either before or after the flags.
	var task string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		task, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML config file")
	backendName := fs.String("backend", "", "compute backend: cpu or webgpu")
	checkpointPath := fs.String("checkpoint", "", "checkpoint output path")
	dataDir := fs.String("data", "", "dataset directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if task == "" {
		task = fs.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	if *checkpointPath != "" {
		cfg.Checkpoint.Path = *checkpointPath
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if err := config.ApplyOverrides(cfg, task, *backendName); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	setupLogger(cfg.Logging.Level)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()
	log.Info().
		Str("run_id", runID).
		Str("trainer", cfg.Trainer).
		Str("backend", cfg.Backend).
		Int64("seed", seed).
		Int("epochs", cfg.Training.Epochs).
		Msg("Starting training run")

	var trainErr error
	switch cfg.Backend {
	case "webgpu":
		// The GPU runtime is a hard requirement once selected; its
		// absence is fatal before any training step runs.
		gpu, err := webgpu.New()
		if err != nil {
			log.Error().Err(err).Msg("WebGPU backend selected but not available")
			return 1
		}
		defer gpu.Release()
		trainErr = train(cfg, autodiff.New(gpu), seed, runID)
	default:
		trainErr = train(cfg, autodiff.New(cpu.New()), seed, runID)
	}

	if trainErr != nil {
		log.Error().Err(trainErr).Str("run_id", runID).Msg("Training failed")
		return 1
	}
	return 0
}

func train[B autodiff.BackwardCapable](cfg *config.Config, backend B, seed int64, runID string) error {
	start := time.Now()

	var err error
	switch cfg.Trainer {
	case "cartpole":
		err = trainCartPole(cfg, backend, seed)
	case "mnist":
		err = trainMNIST(cfg, backend, seed)
	case "text":
		err = trainText(cfg, backend, seed)
	default:
		err = fmt.Errorf("unknown trainer %q", cfg.Trainer)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", runID).
		Dur("elapsed", time.Since(start)).
		Str("checkpoint", cfg.Checkpoint.Path).
		Msg("Training complete")
	return nil
}

func trainCartPole[B autodiff.BackwardCapable](cfg *config.Config, backend B, seed int64) error {
	env := rl.NewCartPole(seed)
	trainer := rl.NewTrainer(env, backend, rl.TrainerConfig{
		Epochs:     cfg.Training.Epochs,
		BatchSize:  cfg.Training.BatchSize,
		LR:         cfg.Training.LearningRate,
		HiddenSize: cfg.Training.HiddenSizes[0],
		Seed:       seed,
	})

	trainer.Train(func(s rl.EpochStats) {
		log.Info().
			Int("epoch", s.Epoch).
			Int("episodes", s.Episodes).
			Int("steps", s.Steps).
			Float64("avg_reward", s.AvgReward).
			Float64("loss", s.Loss).
			Msg("Epoch finished")
		saveSnapshot(cfg, s.Epoch, trainer.Store(), trainer.Optimizer())
	})

	avgReward := trainer.Evaluate(20)
	log.Info().Float64("avg_reward", avgReward).Msg("Greedy policy evaluation")

	return nn.SaveCheckpoint(cfg.Checkpoint.Path, trainer.Store(), trainer.Optimizer(), cfg.Training.Epochs)
}

func trainMNIST[B autodiff.BackwardCapable](cfg *config.Config, backend B, seed int64) error {
	trainData, err := mnist.Load(cfg.Data.Dir, true, 0)
	if err != nil {
		return fmt.Errorf("mnist: %w", err)
	}
	testData, err := mnist.Load(cfg.Data.Dir, false, 0)
	if err != nil {
		return fmt.Errorf("mnist: %w", err)
	}
	log.Info().
		Int("train_samples", trainData.NumSamples()).
		Int("test_samples", testData.NumSamples()).
		Msg("Loaded MNIST dataset")

	store := nn.NewVarStore(backend)
	model := buildMLP(store.Root(), mnist.ImageSize, cfg.Training.HiddenSizes, mnist.NumClasses)
	optimizer := newOptimizer(store, cfg)
	lossFn := nn.NewCrossEntropyLoss[B]()

	testBatches, err := mnist.Batches(testData, cfg.Training.BatchSize, nil, backend)
	if err != nil {
		return fmt.Errorf("mnist: %w", err)
	}

	deadline := trainingDeadline(cfg)
	//nolint:gosec // math/rand is fine for batch shuffling
	rng := rand.New(rand.NewSource(seed))

	for epoch := 0; epoch < cfg.Training.Epochs; epoch++ {
		batches, err := mnist.Batches(trainData, cfg.Training.BatchSize, rng, backend)
		if err != nil {
			return fmt.Errorf("mnist: %w", err)
		}

		totalLoss := 0.0
		for _, batch := range batches {
			logits := model.Forward(batch.Images)
			loss := lossFn.Forward(logits, batch.Labels)
			totalLoss += float64(loss.Item())
			optim.BackwardStep(loss, optimizer, backend)
		}

		log.Info().
			Int("epoch", epoch).
			Float64("loss", totalLoss/float64(len(batches))).
			Float32("test_accuracy", evalAccuracy(model, backend, testBatches)).
			Msg("Epoch finished")

		saveSnapshot(cfg, epoch, store, optimizer)
		if deadlineExceeded(deadline) {
			log.Warn().Int("epoch", epoch).Msg("Training timeout reached, stopping early")
			break
		}
	}

	return nn.SaveCheckpoint(cfg.Checkpoint.Path, store, optimizer, cfg.Training.Epochs)
}

func trainText[B autodiff.BackwardCapable](cfg *config.Config, backend B, seed int64) error {
	encoder, err := sentiment.NewEncoder()
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}

	//nolint:gosec // math/rand is fine for the train/test split
	rng := rand.New(rand.NewSource(seed))
	trainSet, testSet := sentiment.Split(sentiment.Corpus(), 0.25, rng)

	trainX, trainY, err := sentiment.Tensors(encoder, trainSet, backend)
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}
	testX, testY, err := sentiment.Tensors(encoder, testSet, backend)
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}
	log.Info().
		Int("train_samples", len(trainSet)).
		Int("test_samples", len(testSet)).
		Int("feature_dim", sentiment.FeatureDim).
		Msg("Featurized sentiment corpus")

	store := nn.NewVarStore(backend)
	model := nn.NewLinear(store.Root().Sub("classifier"), sentiment.FeatureDim, sentiment.NumClasses)
	optimizer := newOptimizer(store, cfg)
	lossFn := nn.NewCrossEntropyLoss[B]()

	deadline := trainingDeadline(cfg)

	for epoch := 0; epoch < cfg.Training.Epochs; epoch++ {
		logits := model.Forward(trainX)
		loss := lossFn.Forward(logits, trainY)
		lossValue := float64(loss.Item())
		optim.BackwardStep(loss, optimizer, backend)

		if (epoch+1)%10 == 0 || epoch == 0 {
			log.Info().Int("epoch", epoch).Float64("loss", lossValue).Msg("Epoch finished")
		}

		saveSnapshot(cfg, epoch, store, optimizer)
		if deadlineExceeded(deadline) {
			log.Warn().Int("epoch", epoch).Msg("Training timeout reached, stopping early")
			break
		}
	}

	var accuracy float32
	autodiff.NoGrad(backend, func() {
		accuracy = nn.Accuracy(model.Forward(testX), testY)
	})
	log.Info().Float32("test_accuracy", accuracy).Msg("Held-out evaluation")

	return nn.SaveCheckpoint(cfg.Checkpoint.Path, store, optimizer, cfg.Training.Epochs)
}

// buildMLP stacks Linear+ReLU blocks for each hidden width and a final
// projection to the class logits.
func buildMLP[B tensor.Backend](root *nn.Path[B], in int, hidden []int, out int) *nn.Sequential[B] {
	model := nn.NewSequential[B]()
	prev := in
	for i, width := range hidden {
		model.Add(nn.NewLinear(root.Sub(fmt.Sprintf("fc%d", i+1)), prev, width))
		model.Add(nn.NewReLU[B]())
		prev = width
	}
	model.Add(nn.NewLinear(root.Sub("out"), prev, out))
	return model
}

func newOptimizer[B tensor.Backend](store *nn.VarStore[B], cfg *config.Config) optim.Optimizer {
	if cfg.Training.Optimizer == "sgd" {
		return optim.NewSGD(store, optim.SGDConfig{
			LR:          cfg.Training.LearningRate,
			Momentum:    cfg.Training.Momentum,
			WeightDecay: cfg.Training.WeightDecay,
		})
	}
	return optim.NewAdam(store, optim.AdamConfig{
		LR:          cfg.Training.LearningRate,
		WeightDecay: cfg.Training.WeightDecay,
	})
}

// evalAccuracy computes sample-weighted accuracy over the batches with
// gradient recording off.
func evalAccuracy[B autodiff.BackwardCapable](model *nn.Sequential[B], backend B, batches []*mnist.Batch[B]) float32 {
	correct := 0.0
	total := 0
	autodiff.NoGrad(backend, func() {
		for _, batch := range batches {
			acc := nn.Accuracy(model.Forward(batch.Images), batch.Labels)
			correct += float64(acc) * float64(batch.Size)
			total += batch.Size
		}
	})
	if total == 0 {
		return 0
	}
	return float32(correct / float64(total))
}

// saveSnapshot writes a mid-run checkpoint when save_every is set and
// the epoch lands on the interval.
func saveSnapshot[B tensor.Backend](cfg *config.Config, epoch int, store *nn.VarStore[B], optimizer optim.Optimizer) {
	every := cfg.Checkpoint.SaveEvery
	if every <= 0 || (epoch+1)%every != 0 {
		return
	}
	if err := nn.SaveCheckpoint(cfg.Checkpoint.Path, store, optimizer, epoch+1); err != nil {
		log.Warn().Err(err).Int("epoch", epoch).Msg("Snapshot save failed")
	}
}

func trainingDeadline(cfg *config.Config) time.Time {
	if d := cfg.Training.TimeoutDuration(); d > 0 {
		return time.Now().Add(d)
	}
	return time.Time{}
}

func deadlineExceeded(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}
