package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech provider: on-device, amazon, google, or azure
provider: "on-device"
# on-device engine: espeak or mock
engine: "espeak"
# language code for synthesis
language: "en-US"
# voice identifier (blank for the engine default)
voice: ""
# speaking rate (0.1 to 2.0)
rate: 1.0
# voice pitch (0.5 to 2.0)
pitch: 1.0
# cloud audio quality: low, standard, or high
quality: "high"

# backend base URL
api_base: "https://api.voxread.app"

# where exported recordings and cloud audio are written
# audio_dir: "~/voxread/audio"
# where the document library lives
# data_dir: "~/.local/share/voxread"

# appearance (synced to other devices)
dark_mode: false
notifications: true
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the voxread config file",
	Long:    paragraph(fmt.Sprintf("\n%s the voxread config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("voxread config\nvoxread config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			fmt.Println("Config file is at:", configFile)
			return nil
		}

		parts := strings.Fields(editor)
		c := exec.Command(parts[0], append(parts[1:], configFile)...) //nolint:gosec
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run editor: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
