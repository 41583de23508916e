package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var exportName string

var exportCmd = &cobra.Command{
	Use:     "export FILE",
	Short:   "Synthesize a document to an MP3 recording",
	Long:    paragraph(fmt.Sprintf("\n%s a document to an MP3 in your audio library. On-device export needs ffmpeg on the PATH; cloud providers return MP3 directly.", keyword("Export"))),
	Example: paragraph("voxread export report.md --name \"My Report\"\nvoxread export notes.txt --provider google"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if _, err := a.loadDocument(cmd.Context(), args[0]); err != nil {
			return err
		}

		name := exportName
		if name == "" {
			base := filepath.Base(args[0])
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}

		art, err := a.session.Export(name)
		if err != nil {
			return err
		}
		fmt.Println("Saved recording to:", art.Path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportName, "name", "", "display name for the recording")
}
