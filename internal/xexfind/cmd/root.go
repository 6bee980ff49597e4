package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"xexfind/internal/analysis"
	"xexfind/internal/xexfind/log"
)

// config carries the parsed analysis flags into the pipeline.
type config struct {
	base      uint32
	baseSet   bool
	window    uint32
	runBound  uint32
	proximity uint32
	minRun    int
	targets   []uint32
	top       int
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the report without TUI")
	rootCmd.Flags().BoolP("full", "f", false, "Annotate every listed candidate (use with --no-tui)")
	rootCmd.Flags().BoolP("json", "j", false, "Output results as JSON for regression testing")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
	rootCmd.Flags().String("base", "", "Guest base address override (hex, defaults to the image header)")
	rootCmd.Flags().Uint32("window", analysis.DefaultWindow, "Scan window size in bytes")
	rootCmd.Flags().Uint32("run-bound", analysis.DefaultRunBound, "Run extension bound in bytes")
	rootCmd.Flags().Uint32("proximity", analysis.DefaultProximity, "Candidate dedup distance in bytes")
	rootCmd.Flags().Int("min-run", analysis.DefaultMinRun, "Minimum run length to keep a candidate")
	rootCmd.Flags().StringArrayP("target", "t", nil, "Guest address to locate as a literal (hex, repeatable; defaults to the entry point)")
	rootCmd.Flags().Int("top", 20, "Candidate tables to list in the report")
}

var rootCmd = &cobra.Command{
	Use:   "xexfind [file]",
	Short: "Terminal-based XEX2 image analyzer",
	Long: `Xexfind analyzes Xbox 360 XEX2 images: it walks the optional header
directory, sweeps the PE payload for big-endian function pointer tables,
and locates guest addresses as literal bytes in the file.`,
	Example: `
# Run in interactive mode on an image
xexfind /path/to/default.xex

# Print the report with every candidate annotated
xexfind -f /path/to/default.xex

# Look for specific guest addresses
xexfind -n -t 0x829A0860 -t 0x820214FC /path/to/default.xex
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		debug, _ := cmd.Flags().GetBool("debug")
		log.Setup(debug)

		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %v", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return fmt.Errorf("cannot access file: %v", err)
		}

		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		showFull, _ := cmd.Flags().GetBool("full")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		// --full implies --no-tui
		if showFull {
			noTUI = true
		}

		// Also use no-tui mode when output is being piped
		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
			os.Setenv("XEXFIND_NO_COLOR", "1")
		}

		// Disable coloring when using --no-tui to avoid garbled output
		if noTUI {
			os.Setenv("XEXFIND_NO_COLOR", "1")
		}

		if jsonOutput {
			return runJSON(absPath, cfg)
		}

		if noTUI {
			return runNoTUI(absPath, cfg, showFull)
		}

		program := tea.NewProgram(
			NewModel(absPath, cfg),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
			// Mouse tracking disabled to allow native text selection
		)

		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func configFromFlags(cmd *cobra.Command) (config, error) {
	var cfg config

	if s, _ := cmd.Flags().GetString("base"); s != "" {
		v, err := parseAddr(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid --base %q: %v", s, err)
		}
		cfg.base = v
		cfg.baseSet = true
	}

	cfg.window, _ = cmd.Flags().GetUint32("window")
	cfg.runBound, _ = cmd.Flags().GetUint32("run-bound")
	cfg.proximity, _ = cmd.Flags().GetUint32("proximity")
	cfg.minRun, _ = cmd.Flags().GetInt("min-run")
	cfg.top, _ = cmd.Flags().GetInt("top")

	targets, _ := cmd.Flags().GetStringArray("target")
	for _, s := range targets {
		v, err := parseAddr(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid --target %q: %v", s, err)
		}
		cfg.targets = append(cfg.targets, v)
	}

	return cfg, nil
}

// parseAddr accepts "0x82000000" and bare "82000000". Bare strings are
// always read as hex; addresses are hex in this domain.
func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func runJSON(filePath string, cfg config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}

	report, err := analyze(filePath, data, cfg)
	if err != nil {
		return fmt.Errorf("analysis failed: %v", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %v", err)
	}
	fmt.Println(string(out))
	return nil
}

func runNoTUI(filePath string, cfg config, showFull bool) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}

	report, err := analyze(filePath, data, cfg)
	if err != nil {
		return fmt.Errorf("analysis failed: %v", err)
	}

	fmt.Print(buildMarkdown(report, data, showFull, cfg.top))
	return nil
}

func Execute() {
	// Check if --no-tui or --full flag is present, or if output is being
	// piped, to bypass fang's automatic markdown rendering
	noTUI := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" || arg == "--full" || arg == "-f" || arg == "--json" || arg == "-j" {
			noTUI = true
			break
		}
	}

	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	if noTUI {
		// Use cobra directly to avoid fang's automatic markdown rendering
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
	} else {
		if err := fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		); err != nil {
			os.Exit(1)
		}
	}
}
