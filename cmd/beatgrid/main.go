package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/beatgrid/internal/analysis"
	"github.com/keagan/beatgrid/internal/audio"
	"github.com/keagan/beatgrid/internal/config"
	"github.com/keagan/beatgrid/internal/dsp"
	"github.com/keagan/beatgrid/internal/logging"
	"github.com/keagan/beatgrid/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "beatgrid",
	Short: "beatgrid - audio sync point extraction for beat-synced edits",
	Long:  "Analyzes a waveform and emits timestamps classified by musical significance, intended to drive beat-synchronized video cut placement.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		logging.Init(verbose || cfg.Verbose)

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

var (
	presetName string
	jsonOut    bool
	startAt    string
	endAt      string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./beatgrid.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	analyzeCmd.Flags().StringVarP(&presetName, "preset", "p", "", "analysis preset (chill, standard, beat-heavy, or custom)")
	analyzeCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full result as JSON on stdout")
	analyzeCmd.Flags().StringVar(&startAt, "start", "", "analyze from this timestamp (SS.mmm, MM:SS or HH:MM:SS)")
	analyzeCmd.Flags().StringVar(&endAt, "end", "", "analyze up to this timestamp")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(presetsCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [audio.wav]",
	Short: "Analyze a track and print its sync points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		preset, err := cfg.ResolvePreset(presetName)
		if err != nil {
			return err
		}

		sig, err := audio.LoadWAV(args[0])
		if err != nil {
			return err
		}

		sig, err = trimSignal(sig, startAt, endAt)
		if err != nil {
			return err
		}

		analyzer := analysis.New(log.Logger, dsp.NewProvider())
		result, err := analyzer.Analyze(sig, preset)
		if err != nil {
			return err
		}

		if jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Println(analysis.Summary(result))
		for _, p := range result.SyncPoints {
			fmt.Printf("  %s  %-10s %.2f\n", util.FormatSeconds(p.Time), p.Type, p.Intensity)
		}
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available analysis presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		fmt.Printf("%-14s %-9s %-9s %-8s %-8s %-8s %s\n",
			"NAME", "DENS.MIN", "DENS.MAX", "ENERGY", "ONSET", "EDEDUP", "MAXGAP")
		printPreset := func(p analysis.Preset, suffix string) {
			fmt.Printf("%-14s %-9.2f %-9.2f %-8.2f %-8s %-8s %.1fs%s\n",
				p.Name, p.DensityMin, p.DensityMax, p.EnergyThreshold,
				p.OnsetDedup, p.EnergyDedup, p.MaxGap, suffix)
		}

		for _, p := range analysis.BuiltinPresets() {
			printPreset(p, "")
		}

		names := make([]string, 0, len(cfg.Presets))
		for name := range cfg.Presets {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p, err := cfg.ResolvePreset(name)
			if err != nil {
				log.Warn().Err(err).Str("preset", name).Msg("invalid custom preset")
				continue
			}
			printPreset(p, "  (custom)")
		}
		return nil
	},
}

// trimSignal restricts analysis to a sub-range of the track.
func trimSignal(sig analysis.Signal, start, end string) (analysis.Signal, error) {
	from, to := 0.0, sig.Duration
	var err error
	if start != "" {
		if from, err = util.ParseTimestamp(start); err != nil {
			return sig, err
		}
	}
	if end != "" {
		if to, err = util.ParseTimestamp(end); err != nil {
			return sig, err
		}
	}
	if from == 0 && to >= sig.Duration {
		return sig, nil
	}
	if to <= from || from >= sig.Duration {
		return sig, fmt.Errorf("invalid analysis window %g..%g for %.1fs track", from, to, sig.Duration)
	}
	if to > sig.Duration {
		to = sig.Duration
	}

	lo := int(from * float64(sig.SampleRate))
	hi := int(to * float64(sig.SampleRate))
	if hi > len(sig.Samples) {
		hi = len(sig.Samples)
	}
	return analysis.NewSignal(sig.SampleRate, sig.Samples[lo:hi]), nil
}
