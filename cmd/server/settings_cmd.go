package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/quickestimate/internal/pricing"
	"github.com/Simplici0/quickestimate/internal/validation"
)

var settingsOut string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or replace the pricing settings",
}

var settingsDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the current pricing settings as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		settings, err := st.GetSettings(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if settingsOut != "" {
			f, err := os.Create(settingsOut)
			if err != nil {
				return eris.Wrap(err, "settings: create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return writeSettingsYAML(out, settings)
	},
}

var settingsLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Validate a YAML settings file and replace the pricing settings with it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "settings: read file")
		}
		settings, err := parseSettingsYAML(data)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.ReplaceSettings(ctx, settings); err != nil {
			return err
		}
		zap.L().Info("pricing settings loaded", zap.String("file", args[0]))
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the pricing settings with the built-in defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.ReplaceSettings(ctx, pricing.DefaultSettings()); err != nil {
			return err
		}
		zap.L().Info("pricing settings reset to defaults")
		return nil
	},
}

func writeSettingsYAML(w io.Writer, s pricing.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "settings: encode yaml")
	}
	return eris.Wrap(enc.Close(), "settings: flush yaml")
}

// parseSettingsYAML runs a YAML document through the same validation as
// the admin API. The document must be complete.
func parseSettingsYAML(data []byte) (pricing.Settings, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return pricing.Settings{}, eris.Wrap(err, "settings: parse yaml")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return pricing.Settings{}, eris.Wrap(err, "settings: convert yaml")
	}
	settings, err := validation.DecodeSettings(raw)
	if err != nil {
		return pricing.Settings{}, fmt.Errorf("settings: %w", err)
	}
	return settings, nil
}

func init() {
	settingsDumpCmd.Flags().StringVar(&settingsOut, "out", "", "write to file instead of stdout")
	settingsCmd.AddCommand(settingsDumpCmd, settingsLoadCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}
