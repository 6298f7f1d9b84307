package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/skillsenselab/vbdiar/batch"
	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/logger"
	"github.com/skillsenselab/vbdiar/model"
	"github.com/skillsenselab/vbdiar/segments"
	"github.com/skillsenselab/vbdiar/vb"
)

var resegmentFlags struct {
	bundle      string
	ubm         string
	extractor   string
	featuresDir string
	labels      string
	out         string
	workers     int

	maxSpeakers int
	maxIters    int
	downsample  int
	alphaQInit  float64
	sparsityThr float64
	epsilon     float64
	minDur      int
	loopProb    float64
	statScale   float64
	llScale     float64
	randomInit  bool
	seed        int64
}

var resegmentCmd = &cobra.Command{
	Use:   "resegment",
	Short: "Resegment a batch of recordings from local artifacts",
	Long: `Resegment every recording named in the input RTTM labeling.

Features are read from <features-dir>/<recording-id>.msgpack; the refined
segmentation of all recordings is written to a single output RTTM file.
Recordings fail independently: a bad artifact or a degenerate model stops
that recording only, and the command exits nonzero after processing the
rest.`,
	RunE: runResegment,
}

func init() {
	f := resegmentCmd.Flags()
	f.StringVar(&resegmentFlags.bundle, "bundle", "", "model bundle file (msgpack)")
	f.StringVar(&resegmentFlags.ubm, "ubm", "", "UBM text file (used with --extractor)")
	f.StringVar(&resegmentFlags.extractor, "extractor", "", "extractor text file (used with --ubm)")
	f.StringVar(&resegmentFlags.featuresDir, "features-dir", "", "directory holding <recording-id>.msgpack feature files")
	f.StringVar(&resegmentFlags.labels, "labels", "", "initial labeling, RTTM")
	f.StringVar(&resegmentFlags.out, "out", "", "output RTTM file")
	f.IntVar(&resegmentFlags.workers, "workers", 4, "recordings processed concurrently")

	def := vb.DefaultConfig()
	f.IntVar(&resegmentFlags.maxSpeakers, "max-speakers", def.MaxSpeakers, "speaker slot count")
	f.IntVar(&resegmentFlags.maxIters, "max-iters", def.MaxIters, "maximum E/M cycles per recording")
	f.IntVar(&resegmentFlags.downsample, "downsample", def.Downsample, "frames per processed tick")
	f.Float64Var(&resegmentFlags.alphaQInit, "alpha-q-init", def.AlphaQInit, "Dirichlet concentration for random initialization")
	f.Float64Var(&resegmentFlags.sparsityThr, "sparsity-thr", def.SparsityThr, "responsibility pruning threshold")
	f.Float64Var(&resegmentFlags.epsilon, "epsilon", def.Epsilon, "convergence threshold on the objective")
	f.IntVar(&resegmentFlags.minDur, "min-dur", def.MinDur, "minimum speaker turn length in ticks")
	f.Float64Var(&resegmentFlags.loopProb, "loop-prob", def.LoopProb, "probability of staying with the current speaker")
	f.Float64Var(&resegmentFlags.statScale, "stat-scale", def.StatScale, "zeroth-order statistic scale")
	f.Float64Var(&resegmentFlags.llScale, "ll-scale", def.LLScale, "UBM log-likelihood scale")
	f.BoolVar(&resegmentFlags.randomInit, "random-init", false, "ignore the labeling and initialize responsibilities randomly")
	f.Int64Var(&resegmentFlags.seed, "seed", def.Seed, "random initialization seed (0 = time-seeded)")

	resegmentCmd.MarkFlagRequired("features-dir")
	resegmentCmd.MarkFlagRequired("labels")
	resegmentCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(resegmentCmd)
}

func runResegment(cmd *cobra.Command, _ []string) error {
	log := logger.NewFromEnv("vbdiar")

	pair, err := loadLocalPair()
	if err != nil {
		return err
	}
	cfg := engineConfigFromFlags()
	if err := cfg.Validate(); err != nil {
		return err
	}

	labelsFile, err := os.Open(resegmentFlags.labels)
	if err != nil {
		return fmt.Errorf("open labels: %w", err)
	}
	byRecording, err := segments.ParseRTTM(labelsFile)
	labelsFile.Close()
	if err != nil {
		return err
	}
	if len(byRecording) == 0 {
		return fmt.Errorf("labels %s name no recordings", resegmentFlags.labels)
	}

	ids := make([]string, 0, len(byRecording))
	for id := range byRecording {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Artifact failures are per-recording outcomes, same as engine
	// failures: the rest of the batch still runs.
	failed := 0
	tasks := make([]batch.Task, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(resegmentFlags.featuresDir, id+".msgpack")
		feats, err := frames.LoadFeatures(path)
		if err != nil {
			log.Error("features not loadable", logger.MergeWithError(logger.Fields(
				"recording_id", id,
				"path", path,
			), err))
			failed++
			continue
		}
		tasks = append(tasks, batch.Task{
			RecordingID: id,
			Features:    feats,
			Turns:       byRecording[id],
		})
	}

	runner, err := batch.NewRunner(pair, cfg,
		batch.WithWorkers(resegmentFlags.workers),
		batch.WithLogger(log),
		batch.WithSink(progressLogSink(log)),
	)
	if err != nil {
		return err
	}
	outcomes, err := runner.Run(cmd.Context(), "", tasks)
	if err != nil {
		return err
	}

	outFile, err := os.Create(resegmentFlags.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer outFile.Close()

	for _, out := range outcomes {
		if out.Err != nil {
			log.Error("recording failed", logger.MergeWithError(logger.Fields(
				"recording_id", out.RecordingID,
			), out.Err))
			failed++
			continue
		}
		if err := segments.WriteRTTM(outFile, out.RecordingID, out.Segments); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	log.Info("batch finished", logger.Fields(
		"recordings", len(ids),
		"failed", failed,
		"out", resegmentFlags.out,
	))
	if failed > 0 {
		return fmt.Errorf("%d of %d recordings failed", failed, len(ids))
	}
	return nil
}

// loadLocalPair reads the model artifacts named by the flags from the
// local filesystem. A bundle wins over a UBM and extractor text pair.
func loadLocalPair() (*model.Pair, error) {
	if resegmentFlags.bundle != "" {
		bundle, err := model.LoadBundle(resegmentFlags.bundle)
		if err != nil {
			return nil, err
		}
		return model.NewPair(bundle.UBM, bundle.Extractor)
	}
	if resegmentFlags.ubm == "" || resegmentFlags.extractor == "" {
		return nil, fmt.Errorf("either --bundle or both --ubm and --extractor are required")
	}

	ubmFile, err := os.Open(resegmentFlags.ubm)
	if err != nil {
		return nil, fmt.Errorf("open ubm: %w", err)
	}
	u, err := model.ReadUBM(ubmFile)
	ubmFile.Close()
	if err != nil {
		return nil, err
	}

	extFile, err := os.Open(resegmentFlags.extractor)
	if err != nil {
		return nil, fmt.Errorf("open extractor: %w", err)
	}
	e, err := model.ReadExtractor(extFile)
	extFile.Close()
	if err != nil {
		return nil, err
	}
	return model.NewPair(u, e)
}

func engineConfigFromFlags() vb.Config {
	return vb.Config{
		MaxSpeakers: resegmentFlags.maxSpeakers,
		MaxIters:    resegmentFlags.maxIters,
		Downsample:  resegmentFlags.downsample,
		AlphaQInit:  resegmentFlags.alphaQInit,
		SparsityThr: resegmentFlags.sparsityThr,
		Epsilon:     resegmentFlags.epsilon,
		MinDur:      resegmentFlags.minDur,
		LoopProb:    resegmentFlags.loopProb,
		StatScale:   resegmentFlags.statScale,
		LLScale:     resegmentFlags.llScale,
		Initialize:  !resegmentFlags.randomInit,
		Seed:        resegmentFlags.seed,
	}
}

// progressLogSink logs iteration progress at debug level and task
// transitions at info level.
func progressLogSink(log *logger.Logger) batch.SinkFunc {
	log = log.WithComponent("progress")
	return func(ev batch.Event) {
		switch ev.Kind {
		case batch.EventIteration:
			if ev.Iteration != nil {
				log.Debug("iteration", logger.Fields(
					"recording_id", ev.RecordingID,
					"iteration", ev.Iteration.Iteration,
					"objective", ev.Iteration.Objective,
				))
			}
		case batch.EventTaskStarted:
			log.Info("recording started", logger.Fields("recording_id", ev.RecordingID))
		case batch.EventTaskFinished:
			log.Info("recording finished", logger.Fields(
				"recording_id", ev.RecordingID,
				"status", ev.Status,
			))
		}
	}
}
