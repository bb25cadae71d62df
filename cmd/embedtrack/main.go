// Command embedtrack tracks the dominant delay-embedding subspace of an audio
// signal and writes plots, an HTML report and a CSV table of the result.
//
// Input is a WAV file (-input), an entry of an indexed sample library
// (-dataset with -instrument, -pitch and -dynamic) or a synthesized tone
// (-synth). Analysis parameters come from -config and may be overridden by
// flags. Ctrl-C stops the analysis early; the partial result is still written.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/embedtrack/internal/config"
	"github.com/banshee-data/embedtrack/internal/fsutil"
	"github.com/banshee-data/embedtrack/internal/monitoring"
	"github.com/banshee-data/embedtrack/internal/version"
)

type options struct {
	// Input
	input      string
	start, end float64
	datasetDir string
	instrument string
	pitch      string
	dynamic    string
	synthKind  string
	frequency  float64
	sampleRate float64
	duration   float64
	noise      float64

	cfg *config.AnalysisConfig

	// Output
	label    string
	outDir   string
	plots    bool
	report   bool
	csv      bool
	dbPath   string
	progress time.Duration

	listRuns    int
	verbose     bool
	showVersion bool
}

func parseOptions(args []string) (*options, error) {
	fs := flag.NewFlagSet("embedtrack", flag.ContinueOnError)
	o := &options{}

	fs.StringVar(&o.input, "input", "", "WAV file to analyse")
	fs.Float64Var(&o.start, "start", 0, "Start of the analysed excerpt in seconds")
	fs.Float64Var(&o.end, "end", 0, "End of the analysed excerpt in seconds (0 = end of file)")
	fs.StringVar(&o.datasetDir, "dataset", "", "Sample library to pick the input from")
	fs.StringVar(&o.instrument, "instrument", "", "Instrument key in the sample library (e.g. Violin.arco)")
	fs.StringVar(&o.pitch, "pitch", "", "Pitch in the sample library, or the synth pitch (e.g. A4)")
	fs.StringVar(&o.dynamic, "dynamic", "", "Dynamic in the sample library (loudest available if empty)")
	fs.StringVar(&o.synthKind, "synth", "sine", "Synthesized input: sine, saw, square, triangle or timbre")
	fs.Float64Var(&o.frequency, "freq", 220, "Synth frequency in Hz (ignored when -pitch is set)")
	fs.Float64Var(&o.sampleRate, "sr", 44100, "Synth sample rate in Hz")
	fs.Float64Var(&o.duration, "duration", 1, "Synth duration in seconds")
	fs.Float64Var(&o.noise, "noise", 0, "Standard deviation of white noise added to the input")

	configPath := fs.String("config", "", "Analysis config file (.json, .yaml or .yml)")
	delays := fs.String("delays", "", "Comma-separated embedding delays, e.g. 0,5,10")
	k := fs.Int("k", 0, "Subspace rank")
	mode := fs.String("mode", "", "Basis update: gradient, qr or svd")
	domain := fs.String("domain", "", "Numeric domain: real or complex")
	oversample := fs.Int("oversample", 0, "Basis updates per sample")
	alpha := fs.Float64("alpha", 0, "Covariance decay in [0, 1)")
	seed := fs.Uint64("seed", 0, "Random initialization seed (0 = random)")
	normalize := fs.Bool("normalize", false, "Energy-normalize covariance and distance")
	pad := fs.Bool("pad", false, "Zero-pad the signal head so every input sample has an output")

	fs.StringVar(&o.label, "label", "", "Run label (defaults to the input name)")
	fs.StringVar(&o.outDir, "out", "out", "Output directory")
	fs.BoolVar(&o.plots, "plots", true, "Write PNG plots")
	fs.BoolVar(&o.report, "report", true, "Write the HTML report")
	fs.BoolVar(&o.csv, "csv", true, "Write the CSV table")
	fs.StringVar(&o.dbPath, "db", "embedtrack.db", "Run history database (empty to disable)")
	fs.DurationVar(&o.progress, "progress", 2*time.Second, "Progress report interval")
	fs.IntVar(&o.listRuns, "list", 0, "List the N most recent runs and exit")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	fs.BoolVar(&o.showVersion, "version", false, "Print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	o.cfg = config.DefaultAnalysisConfig()
	if *configPath != "" {
		loaded, err := config.LoadAnalysisConfig(*configPath)
		if err != nil {
			return nil, err
		}
		o.cfg = loaded
	}

	// Explicit flags win over the config file.
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "delays":
			o.cfg.Delays, err = parseDelays(*delays)
		case "k":
			o.cfg.K = k
		case "mode":
			o.cfg.Mode = mode
		case "domain":
			o.cfg.NumericDomain = domain
		case "oversample":
			o.cfg.Oversample = oversample
		case "alpha":
			o.cfg.Alpha = alpha
		case "seed":
			o.cfg.Seed = seed
		case "normalize":
			o.cfg.Normalize = normalize
		case "pad":
			o.cfg.Pad = pad
		}
	})
	if err != nil {
		return nil, err
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func parseDelays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid delay %q: %w", part, err)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no delays in %q", s)
	}
	return out, nil
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("embedtrack: %v", err)
	}
	if o.showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(o.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if o.listRuns > 0 {
		if err := listRuns(o, os.Stdout); err != nil {
			log.Fatalf("embedtrack: %v", err)
		}
		return
	}

	out, err := run(ctx, o, fsutil.OSFileSystem{})
	if err != nil {
		log.Fatalf("embedtrack: %v", err)
	}
	printOutcome(os.Stdout, out)
	if out.Summary.Interrupted {
		stop()
		os.Exit(130)
	}
}
