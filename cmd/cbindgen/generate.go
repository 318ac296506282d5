package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/defermelowie/cbindgen/internal/config"
	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/driver"
	"github.com/defermelowie/cbindgen/internal/observ"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [crate...]",
	Short: "Generate the C header for one or more crates",
	Long:  "Generate a C header from the declaration files under the given crate roots, using cbindgen.toml for the emission profile.",
	RunE:  generateExecution,
}

func init() {
	generateCmd.Flags().StringP("output", "o", "bindings.h", "header output path (- for stdout)")
	generateCmd.Flags().String("config", "", "explicit cbindgen.toml path")
	generateCmd.Flags().Int("jobs", 0, "parallel parse jobs (0 = GOMAXPROCS)")
	generateCmd.Flags().Bool("no-cache", false, "bypass the parse cache")
	generateCmd.Flags().String("ui", "auto", "progress interface (auto|on|off)")
}

func generateExecution(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colored, err := readColorMode(cmd)
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	conf, confDir, err := resolveConfig(configPath, args)
	if err != nil {
		return err
	}

	crates := args
	if len(crates) == 0 {
		crates = conf.Parse.Crates
		// Crate roots in the configuration are relative to its directory.
		for i, c := range crates {
			if !filepath.IsAbs(c) {
				crates[i] = filepath.Join(confDir, c)
			}
		}
	}
	if len(crates) == 0 {
		crates = []string{confDir}
	}

	var cache *driver.DiskCache
	if conf.Cache.Enabled && !noCache {
		cache, err = driver.OpenDiskCache(conf.Cache.Dir)
		if err != nil {
			return err
		}
	}

	var timer *observ.Timer
	if timings {
		timer = observ.NewTimer()
	}

	opts := driver.Options{
		Crates:         crates,
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Cache:          cache,
		Timer:          timer,
	}
	if output != "-" {
		opts.Output = output
	}

	var res *driver.Result
	var genErr error
	if shouldUseTUI(uiModeValue, quiet) {
		res, genErr = runGenerateWithUI(cmd.Context(), "cbindgen generate", crates, conf, opts)
	} else {
		res, genErr = driver.Generate(cmd.Context(), conf, opts)
	}

	if res != nil {
		res.Bag.Sort()
		renderer := &diag.Renderer{Out: os.Stderr, Files: res.Files, Colored: colored}
		renderer.Render(res.Bag)
	}
	if timer != nil {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	if genErr != nil {
		return genErr
	}

	if output == "-" {
		if _, err := os.Stdout.Write(res.Header); err != nil {
			return err
		}
	} else if !quiet {
		fmt.Fprintf(os.Stdout, "wrote %s\n", output)
	}
	return nil
}

// resolveConfig loads the explicit configuration file, or searches upward
// from the first crate root (or the working directory) for cbindgen.toml.
// Absence of a configuration file is not an error; defaults apply.
func resolveConfig(explicit string, args []string) (config.Config, string, error) {
	if explicit != "" {
		conf, err := config.Load(explicit)
		if err != nil {
			return config.Config{}, "", err
		}
		return conf, filepath.Dir(explicit), nil
	}

	start := "."
	if len(args) > 0 {
		start = args[0]
	}
	path, found, err := config.Find(start)
	if err != nil {
		return config.Config{}, "", err
	}
	if !found {
		dir, absErr := filepath.Abs(start)
		if absErr != nil {
			dir = start
		}
		return config.Default(), dir, nil
	}
	conf, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	return conf, filepath.Dir(path), nil
}

func readColorMode(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		color.NoColor = true
		return false, nil
	case "auto", "":
		return isTerminal(os.Stderr), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}
