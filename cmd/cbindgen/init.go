package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/defermelowie/cbindgen/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a crate for header generation",
	Long: `Initialize a crate for header generation by creating a cbindgen.toml
with the default emission profile. If [path] is omitted, initializes the
current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const configTemplate = `# cbindgen emission profile for %s

[header]
guard = "%s_H"
# banner = "/* machine generated, do not edit */"

[defines]
# enabled = ["feature=serde"]
# known = ["windows"]

[export]
# prefix = "%s_"
# include = []
# exclude = []
# opaque_only = []

[rename]
# types = "PascalCase"
# functions = "snake_case"
# constants = "SCREAMING_SNAKE_CASE"

[parse]
crates = ["."]

[mono]
max_depth = 32

[cache]
enabled = true
`

func runInit(_ *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "library"
	}

	configPath := filepath.Join(target, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("already initialized: %s exists", configPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	guard := strings.ToUpper(sanitizeIdent(name))
	prefix := strings.ToLower(sanitizeIdent(name))
	content := fmt.Sprintf(configTemplate, name, guard, prefix)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", configPath, err)
	}

	fmt.Fprintf(os.Stdout, "created %s\n", configPath)
	return nil
}

// sanitizeIdent folds a directory name into something usable as a C
// identifier fragment.
func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "library"
	}
	return out
}
