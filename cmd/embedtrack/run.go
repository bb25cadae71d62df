package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/banshee-data/embedtrack/internal/audio"
	"github.com/banshee-data/embedtrack/internal/config"
	"github.com/banshee-data/embedtrack/internal/dataset"
	"github.com/banshee-data/embedtrack/internal/fsutil"
	"github.com/banshee-data/embedtrack/internal/monitoring"
	"github.com/banshee-data/embedtrack/internal/render"
	"github.com/banshee-data/embedtrack/internal/runstore"
	"github.com/banshee-data/embedtrack/internal/security"
	"github.com/banshee-data/embedtrack/internal/subspace"
	"github.com/banshee-data/embedtrack/internal/synth"
	"github.com/banshee-data/embedtrack/internal/version"
)

// input is a loaded or synthesized signal ready for analysis.
type input struct {
	label      string
	source     string
	sampleRate float64
	samples    []float64
	analytic   []complex128 // exact analytic form, when the synthesizer has one
}

// outcome describes a finished (or interrupted) run.
type outcome struct {
	RunID     string
	Label     string
	Dir       string
	Summary   subspace.Summary
	Artifacts []runstore.Artifact
}

func run(ctx context.Context, o *options, fsys fsutil.FileSystem) (*outcome, error) {
	delays, k, cfg, err := o.cfg.ToSubspace()
	if err != nil {
		return nil, err
	}

	in, err := loadInput(fsys, o)
	if err != nil {
		return nil, err
	}
	label := o.label
	if label == "" {
		label = in.label
	}
	monitoring.Logf("analysing %s: %d samples at %g Hz, delays=%v k=%d mode=%s domain=%s",
		in.source, len(in.samples), in.sampleRate, delays, k, cfg.Mode, o.cfg.GetNumericDomain())

	if o.progress > 0 {
		cfg.Progress = monitoring.NewProgress(label, o.progress).Update
	}

	var (
		data    *render.Data
		summary subspace.Summary
	)
	if o.cfg.Complex() {
		signal := in.analytic
		if signal == nil {
			signal = audio.Analytic(in.samples)
		}
		data, summary, err = analyze(ctx, signal, delays, k, cfg, label, in.sampleRate, o.cfg.GetWarmupFraction())
	} else {
		data, summary, err = analyze(ctx, in.samples, delays, k, cfg, label, in.sampleRate, o.cfg.GetWarmupFraction())
	}
	if err != nil {
		return nil, err
	}
	if summary.Interrupted {
		monitoring.Logf("interrupted after %d samples; writing partial results", summary.Samples)
	}

	out := &outcome{Label: label, Dir: filepath.Join(o.outDir, security.SanitizeFilename(label, "run")), Summary: summary}
	if err := security.ValidatePathWithinDirectory(out.Dir, o.outDir); err != nil {
		return nil, err
	}
	if err := writeOutputs(fsys, o, out, data); err != nil {
		return nil, err
	}

	if o.dbPath != "" {
		id, err := saveRun(o, in, out, delays, k, cfg)
		if err != nil {
			return nil, err
		}
		out.RunID = id
	}
	return out, nil
}

func analyze[T subspace.Scalar](ctx context.Context, signal []T, delays []int, k int, cfg subspace.Config,
	label string, sampleRate, warmup float64) (*render.Data, subspace.Summary, error) {
	res, err := subspace.Analyze(ctx, signal, delays, k, cfg)
	if err != nil {
		return nil, subspace.Summary{}, fmt.Errorf("analysis failed: %w", err)
	}
	return render.FromResult(res, label, sampleRate), subspace.Summarize(res, warmup), nil
}

func loadInput(fsys fsutil.FileSystem, o *options) (*input, error) {
	switch {
	case o.input != "":
		return loadWAV(fsys, o.input, o)
	case o.datasetDir != "":
		path, err := pickSample(fsys, o)
		if err != nil {
			return nil, err
		}
		return loadWAV(fsys, path, o)
	default:
		return synthesize(o)
	}
}

func loadWAV(fsys fsutil.FileSystem, path string, o *options) (*input, error) {
	sig, err := audio.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	if o.start > 0 || o.end > 0 {
		sig = sig.Slice(o.start, o.end)
	}
	sig.Normalize()
	if o.noise > 0 {
		synth.AddNoise(sig.Samples, o.noise, o.cfg.GetSeed())
	}
	base := filepath.Base(path)
	return &input{
		label:      strings.TrimSuffix(base, filepath.Ext(base)),
		source:     path,
		sampleRate: float64(sig.SampleRate),
		samples:    sig.Samples,
	}, nil
}

// pickSample resolves -instrument/-pitch/-dynamic against the indexed
// library, defaulting to the loudest recorded dynamic.
func pickSample(fsys fsutil.FileSystem, o *options) (string, error) {
	idx, err := dataset.Build(fsys, o.datasetDir)
	if err != nil {
		return "", err
	}
	monitoring.Logf("indexed %d samples (%d instruments, %d files skipped) under %s",
		idx.Len(), len(idx.Instruments()), idx.Skipped(), o.datasetDir)

	if o.instrument == "" || o.pitch == "" {
		return "", fmt.Errorf("-dataset needs -instrument and -pitch; instruments: %s",
			strings.Join(idx.Instruments(), ", "))
	}
	dyn := o.dynamic
	if dyn == "" {
		dyns := idx.Dynamics(o.instrument, o.pitch)
		if len(dyns) == 0 {
			return "", fmt.Errorf("no %s recordings at %s; pitches: %s",
				o.instrument, o.pitch, strings.Join(idx.Pitches(o.instrument), ", "))
		}
		dyn = dyns[len(dyns)-1]
	}
	s, ok := idx.Lookup(o.instrument, o.pitch, dyn)
	if !ok {
		return "", fmt.Errorf("no %s recording at %s %s; dynamics: %s",
			o.instrument, o.pitch, dyn, strings.Join(idx.Dynamics(o.instrument, o.pitch), ", "))
	}
	return s.Path, nil
}

func synthesize(o *options) (*input, error) {
	freq := o.frequency
	if o.pitch != "" {
		f, err := dataset.Frequency(o.pitch)
		if err != nil {
			return nil, err
		}
		freq = f
	}
	if o.sampleRate <= 0 || freq <= 0 || freq >= o.sampleRate/2 {
		return nil, fmt.Errorf("synth frequency %g Hz must be in (0, %g)", freq, o.sampleRate/2)
	}
	n := int(math.Round(o.duration * o.sampleRate))
	if n <= 0 {
		return nil, fmt.Errorf("synth duration %gs yields no samples", o.duration)
	}

	tone := synth.NewTone(o.sampleRate, freq)
	in := &input{
		label:      fmt.Sprintf("%s-%g", o.synthKind, freq),
		source:     fmt.Sprintf("synth:%s f=%g sr=%g n=%d", o.synthKind, freq, o.sampleRate, n),
		sampleRate: o.sampleRate,
	}
	switch o.synthKind {
	case "sine":
		in.samples = tone.Sine(n)
		if o.noise == 0 {
			in.analytic = tone.Analytic(n)
		}
	case "saw":
		in.samples = tone.Saw(n, 0)
	case "square":
		in.samples = tone.Square(n, 0)
	case "triangle":
		in.samples = tone.Triangle(n, 0)
	case "timbre":
		in.samples = synth.Timbre{
			Tone:     tone,
			Partials: 16,
			Stretch:  1e-4,
			Rolloff:  1,
			Decay:    1.5,
			Seed:     o.cfg.GetSeed() + 1,
		}.Render(n)
	default:
		return nil, fmt.Errorf("unknown synth %q", o.synthKind)
	}
	if o.noise > 0 {
		synth.AddNoise(in.samples, o.noise, o.cfg.GetSeed())
	}
	return in, nil
}

func writeOutputs(fsys fsutil.FileSystem, o *options, out *outcome, data *render.Data) error {
	if err := fsys.MkdirAll(out.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if o.plots {
		paths, err := render.WritePNGs(fsys, out.Dir, data)
		if err != nil {
			return err
		}
		for _, p := range paths {
			out.Artifacts = append(out.Artifacts, runstore.Artifact{Kind: "png", Path: p})
		}
	}
	if o.report {
		p := filepath.Join(out.Dir, "report.html")
		if err := render.WriteReportFile(fsys, p, data, &out.Summary); err != nil {
			return err
		}
		out.Artifacts = append(out.Artifacts, runstore.Artifact{Kind: "html", Path: p})
	}
	if o.csv {
		p := filepath.Join(out.Dir, "run.csv")
		if err := render.WriteCSVFile(fsys, p, data); err != nil {
			return err
		}
		out.Artifacts = append(out.Artifacts, runstore.Artifact{Kind: "csv", Path: p})
	}

	p := filepath.Join(out.Dir, "summary.json")
	body, err := json.MarshalIndent(struct {
		Label   string                 `json:"label"`
		Version string                 `json:"version"`
		Config  *config.AnalysisConfig `json:"config"`
		Summary subspace.Summary       `json:"summary"`
	}{out.Label, version.String(), o.cfg, out.Summary}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := fsys.WriteFile(p, append(body, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	out.Artifacts = append(out.Artifacts, runstore.Artifact{Kind: "json", Path: p})
	return nil
}

func saveRun(o *options, in *input, out *outcome, delays []int, k int, cfg subspace.Config) (string, error) {
	store, err := runstore.Open(o.dbPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	cfgJSON, err := json.Marshal(o.cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return store.Insert(&runstore.Run{
		Label:         out.Label,
		Source:        in.source,
		SampleRate:    in.sampleRate,
		NumericDomain: o.cfg.GetNumericDomain(),
		Mode:          cfg.Mode.String(),
		Delays:        delays,
		K:             k,
		ConfigJSON:    string(cfgJSON),
		Summary:       out.Summary,
		Artifacts:     out.Artifacts,
	})
}

func listRuns(o *options, w io.Writer) error {
	if o.dbPath == "" {
		return fmt.Errorf("-list needs -db")
	}
	store, err := runstore.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(o.listRuns)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tLABEL\tMODE\tK\tSAMPLES\tMEAN DIST\tMEAN RADIUS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.3g\t%.3g\n",
			r.ID[:8], r.Created.Format("2006-01-02 15:04:05"), r.Label, r.Mode, r.K,
			r.Summary.Samples, r.Summary.MeanDistance, r.Summary.MeanRadius)
	}
	return tw.Flush()
}

func printOutcome(w io.Writer, out *outcome) {
	s := out.Summary
	fmt.Fprintf(w, "%s: %d samples (%d warm-up)", out.Label, s.Samples, s.Warmup)
	if s.Interrupted {
		fmt.Fprint(w, " [interrupted]")
	}
	fmt.Fprintf(w, "\n  distance mean=%.4g min=%.4g max=%.4g\n  radius mean=%.4g\n",
		s.MeanDistance, s.MinDistance, s.MaxDistance, s.MeanRadius)
	if s.BasesRecorded {
		fmt.Fprintf(w, "  max orthogonality error=%.3g\n", s.MaxOrthogonality)
	}
	for _, a := range out.Artifacts {
		fmt.Fprintf(w, "  wrote %s\n", a.Path)
	}
	if out.RunID != "" {
		fmt.Fprintf(w, "  run %s\n", out.RunID)
	}
}
