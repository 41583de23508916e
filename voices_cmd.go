package main

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/voxread/voxread/tts"
)

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List available voices for the configured provider",
	Example: paragraph("voxread voices\nvoxread voices --provider google"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		var voices []tts.Voice
		if a.cfg.Provider == tts.ProviderOnDevice {
			voices, err = a.engine.Voices()
			if err != nil {
				return err
			}
		} else {
			// Cloud listing failures degrade to an empty list; the voices
			// still exist, we just can't enumerate them right now.
			voices, err = a.client.Voices(cmd.Context(), a.cfg.Provider)
			if err != nil {
				a.logger.Warn("could not list cloud voices", "provider", a.cfg.Provider, "error", err)
			}
		}

		if len(voices) == 0 {
			fmt.Println(subtle("No voices available."))
			return nil
		}
		for _, v := range voices {
			fmt.Printf("%s %s %s\n",
				runewidth.FillRight(runewidth.Truncate(v.ID, 32, "…"), 32),
				runewidth.FillRight(v.Language, 8),
				subtle(v.Gender))
		}
		return nil
	},
}
