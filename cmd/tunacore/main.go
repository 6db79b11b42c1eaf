// Command tunacore is the real-time pitch/note detector host: it wires
// PortAudio capture, the dsp/pitch/midi detector core, a bubbletea TUI and
// a websocket spectrum publisher together.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/0xlemi/tunacore/internal/audio"
	"github.com/0xlemi/tunacore/internal/dsp"
	"github.com/0xlemi/tunacore/internal/hostconfig"
	"github.com/0xlemi/tunacore/internal/pitch"
	"github.com/0xlemi/tunacore/internal/spectrum"
	"github.com/0xlemi/tunacore/internal/ui"
)

var (
	flagConfigPath string
	flagVariant    string
	flagDevice     int
	flagSampleRate float64
	flagLogLevel   string
)

func main() {
	root := &cobra.Command{
		Use:   "tunacore",
		Short: "real-time pitch and note detector",
		RunE:  run,
	}

	var flags *pflag.FlagSet = root.Flags()
	flags.StringVar(&flagConfigPath, "config", "", "path to a YAML config file")
	flags.StringVar(&flagVariant, "variant", "", "override variant: tuner, fft-only, midi")
	flags.IntVar(&flagDevice, "device", -2, "input device index (-1 default device, -2 use config)")
	flags.Float64Var(&flagSampleRate, "sample-rate", 0, "override sample rate in Hz")
	flags.StringVar(&flagLogLevel, "log-level", "", "override log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	hc, err := hostconfig.Load(flagConfigPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(&hc)
	if err := hostconfig.Validate(hc); err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(hc.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)

	variant, err := parseVariant(hc.Variant)
	if err != nil {
		return err
	}

	dcfg := dsp.DefaultConfig(variant, hc.SampleRate)
	dcfg.EdgesPerPeriod = hc.EdgesPerPeriod
	orch := pitch.NewOrchestrator(dcfg, logger)

	capturer, err := audio.NewPortAudioCapturer(hc.FramesPerBuffer, hc.SampleRate, hc.Channels, hc.DeviceIndex)
	if err != nil {
		return fmt.Errorf("audio capturer: %w", err)
	}

	publisher := spectrum.NewPublisher()
	httpServer := &http.Server{Addr: hc.SpectrumAddr, Handler: publisher}
	go func() {
		logger.Infof("spectrum publisher listening on %s", hc.SpectrumAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("spectrum server: %v", err)
		}
	}()
	defer httpServer.Close()

	model := ui.NewModel(variant)
	program := tea.NewProgram(model, tea.WithAltScreen())

	lastSpectrumPublish := time.Now()
	handler := func(in, out []float32) {
		result := orch.Process(in, out, hc.Tuning, dsp.AutoMode())
		program.Send(ui.ResultMsg(result))

		if time.Since(lastSpectrumPublish) > 33*time.Millisecond {
			power, binHz := orch.Spectrum()
			publisher.Publish(power, binHz)
			lastSpectrumPublish = time.Now()
		}
	}

	if err := capturer.Start(handler); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer capturer.Stop()

	logger.Info("listening for audio", "variant", variant, "sampleRate", hc.SampleRate)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// applyFlagOverrides layers explicitly-set CLI flags over the loaded
// config, the highest-precedence tier (SPEC_FULL.md §2.3).
func applyFlagOverrides(hc *hostconfig.Config) {
	if flagVariant != "" {
		hc.Variant = flagVariant
	}
	if flagDevice != -2 {
		hc.DeviceIndex = flagDevice
	}
	if flagSampleRate > 0 {
		hc.SampleRate = flagSampleRate
	}
	if flagLogLevel != "" {
		hc.LogLevel = flagLogLevel
	}
}

func parseVariant(s string) (dsp.Variant, error) {
	switch s {
	case "tuner":
		return dsp.VariantTuner, nil
	case "fft-only":
		return dsp.VariantFFTOnly, nil
	case "midi":
		return dsp.VariantMIDI, nil
	default:
		return 0, fmt.Errorf("unknown variant %q", s)
	}
}
