// Package stack runs background removal over every slice of an image stack.
//
// Slices are independent, so they are spread over a fixed number of worker
// goroutines and reassembled in input order afterwards.
package stack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"noisesubtract/internal/logger"
	"noisesubtract/internal/models"
	"noisesubtract/pkg/background"
	"noisesubtract/pkg/imageio"
)

const component = "stack"

// MaskDir is the subdirectory of the output directory that receives masks.
const MaskDir = "masks"

// Params holds the stack processing configuration.
type Params struct {
	// InputPath is a directory of slice images, or a single image file.
	InputPath string

	// OutputDir receives one TIFF per slice.
	OutputDir string

	// NumCores bounds how many slices are processed at the same time.
	NumCores int

	// Options are passed unchanged to every slice.
	Options background.Options

	// Suffix is appended to each output base name.
	Suffix string

	// SaveMasks writes each slice's final mask as a PNG under OutputDir/masks.
	SaveMasks bool

	// Logger receives progress and per-slice statistics. Nil discards logs.
	Logger logger.Logger
}

// ProgressCallback is a function that reports progress while slices complete
type ProgressCallback func(completed, total int, message string)

// Summary describes the last run of a Processor.
type Summary struct {
	RunID    string
	Slices   []models.SliceSummary
	Duration time.Duration

	// MeanBorderStdDev and MeanSignalFraction average the per-slice values.
	MeanBorderStdDev   float64
	MeanSignalFraction float64
}

// Processor handles background removal for a whole stack.
type Processor struct {
	params   *Params
	log      logger.Logger
	progress ProgressCallback

	mu      sync.Mutex
	summary Summary
}

// NewProcessor creates a new processor with the provided parameters.
func NewProcessor(params *Params) *Processor {
	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		params: params,
		log:    log,
	}
}

// SetProgressCallback sets a callback invoked after every completed slice.
func (p *Processor) SetProgressCallback(callback ProgressCallback) {
	p.progress = callback
}

// Summary returns the statistics of the last run.
func (p *Processor) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary
}

// Process loads the input stack, removes the background of every slice and
// writes the results to the output directory.
func (p *Processor) Process(ctx context.Context) error {
	runID := uuid.NewString()
	log := p.log.With("run", runID)
	start := time.Now()

	if err := p.params.Options.Validate(); err != nil {
		return err
	}

	st, err := imageio.LoadStack(p.params.InputPath)
	if err != nil {
		return fmt.Errorf("failed to load stack: %w", err)
	}
	log.Info(component, "stack loaded", map[string]interface{}{
		"input":  p.params.InputPath,
		"slices": len(st.Slices),
		"width":  st.Width,
		"height": st.Height,
	})

	results, err := p.processStack(ctx, st.Slices, runID, log)
	if err != nil {
		return err
	}

	if err := p.writeResults(st.Slices, results, log); err != nil {
		return err
	}

	elapsed := time.Since(start)
	p.mu.Lock()
	p.summary.Duration = elapsed
	p.mu.Unlock()

	log.Info(component, fmt.Sprintf("noise subtraction done in %.2f seconds", elapsed.Seconds()), map[string]interface{}{
		"output": p.params.OutputDir,
	})
	return nil
}

// ProcessStack removes the background of in-memory slices and returns the
// results in input order. Cancelling ctx stops further slices from being
// scheduled; slices already running finish and ctx.Err() is returned, unless
// every slice had already completed.
// The first slice that fails aborts the run.
func (p *Processor) ProcessStack(ctx context.Context, slices []*models.Slice) ([]*background.Result, error) {
	runID := uuid.NewString()
	return p.processStack(ctx, slices, runID, p.log.With("run", runID))
}

type sliceResult struct {
	index  int
	result *background.Result
	err    error
}

func (p *Processor) processStack(parent context.Context, slices []*models.Slice, runID string, log logger.Logger) ([]*background.Result, error) {
	start := time.Now()
	opts := p.params.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	workers := p.params.NumCores
	if workers < 1 {
		workers = 1
	}
	if workers > len(slices) {
		workers = len(slices)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	jobs := make(chan int)
	resultChan := make(chan sliceResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				s := slices[idx]
				res, err := background.ProcessSlice(s.Pixels, s.Width, s.Height, opts)
				resultChan <- sliceResult{index: idx, result: res, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range slices {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]*background.Result, len(slices))
	summaries := make([]models.SliceSummary, len(slices))
	total := len(slices)
	completed := 0
	var firstErr error

	for res := range resultChan {
		s := slices[res.index]
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("slice %d (%s): %w", s.Index, sliceName(s), res.err)
				log.Error(component, "slice failed", res.err, map[string]interface{}{
					"slice": s.Index,
					"file":  sliceName(s),
				})
				cancel()
			}
			continue
		}

		results[res.index] = res.result
		summaries[res.index] = summarize(s, res.result)
		completed++

		log.Debug(component, "slice processed", map[string]interface{}{
			"slice":     s.Index,
			"mean":      res.result.Stats.Mean,
			"stddev":    res.result.Stats.StdDev,
			"threshold": res.result.Threshold,
			"signal":    summaries[res.index].SignalPixels,
		})
		if p.progress != nil {
			p.progress(completed, total, fmt.Sprintf("slice %s done", sliceName(s)))
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	// A cancel that lands after the last slice does not discard the run.
	if completed < total {
		err := parent.Err()
		if err == nil {
			err = context.Canceled
		}
		log.Warning(component, "run cancelled", map[string]interface{}{
			"completed": completed,
			"total":     total,
		})
		return nil, err
	}

	summary := Summary{
		RunID:    runID,
		Slices:   summaries,
		Duration: time.Since(start),
	}
	if len(summaries) > 0 {
		stds := make([]float64, len(summaries))
		fractions := make([]float64, len(summaries))
		for i, s := range summaries {
			stds[i] = s.BorderStdDev
			fractions[i] = s.SignalFraction()
		}
		summary.MeanBorderStdDev = stat.Mean(stds, nil)
		summary.MeanSignalFraction = stat.Mean(fractions, nil)
	}
	p.mu.Lock()
	p.summary = summary
	p.mu.Unlock()

	log.Info(component, "stack processed", map[string]interface{}{
		"slices":          total,
		"workers":         workers,
		"mean_stddev":     summary.MeanBorderStdDev,
		"signal_fraction": summary.MeanSignalFraction,
	})
	return results, nil
}

func (p *Processor) writeResults(slices []*models.Slice, results []*background.Result, log logger.Logger) error {
	if err := os.MkdirAll(p.params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	maskDir := filepath.Join(p.params.OutputDir, MaskDir)
	if p.params.SaveMasks {
		if err := os.MkdirAll(maskDir, 0755); err != nil {
			return fmt.Errorf("failed to create mask directory: %w", err)
		}
	}

	for i, s := range slices {
		res := results[i]
		name := imageio.OutputName(s, p.params.Suffix)
		depth := s.BitDepth
		if depth == 0 {
			depth = 16
		}
		if err := imageio.SaveTIFF(filepath.Join(p.params.OutputDir, name), res.Pixels, s.Width, s.Height, depth); err != nil {
			return fmt.Errorf("failed to save slice %d: %w", s.Index, err)
		}

		if p.params.SaveMasks && res.Mask != nil {
			maskName := strings.TrimSuffix(name, ".tif") + "_mask.png"
			if err := imageio.SaveMask(filepath.Join(maskDir, maskName), res.Mask, s.Width, s.Height); err != nil {
				log.Warning(component, "failed to save mask", map[string]interface{}{
					"slice": s.Index,
					"error": err.Error(),
				})
			}
		}
	}
	return nil
}

func summarize(s *models.Slice, res *background.Result) models.SliceSummary {
	return models.SliceSummary{
		Index:        s.Index,
		Filename:     s.Filename,
		BorderMean:   res.Stats.Mean,
		BorderStdDev: res.Stats.StdDev,
		Threshold:    res.Threshold,
		SignalPixels: res.SignalCount(),
		TotalPixels:  len(res.Pixels),
	}
}

func sliceName(s *models.Slice) string {
	if s.Filename != "" {
		return s.Filename
	}
	return fmt.Sprintf("#%d", s.Index)
}
