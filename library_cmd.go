package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/voxread/voxread/internal/library"
)

var scanAll bool

var libraryCmd = &cobra.Command{
	Use:     "library",
	Short:   "Manage your document library",
	Example: paragraph("voxread library list\nvoxread library scan ~/books\nvoxread library search notes"),
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		docs := a.lib.Documents()
		if len(docs) == 0 {
			fmt.Println(subtle("No documents yet. Open one with: voxread FILE"))
			return nil
		}
		printDocuments(docs)
		return nil
	},
}

var libraryScanCmd = &cobra.Command{
	Use:   "scan [DIR]",
	Short: "Find readable documents under a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		docs, err := library.Scan(dir, scanAll)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println(subtle("No readable documents found."))
			return nil
		}
		printDocuments(docs)
		return nil
	},
}

var librarySearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Fuzzy-search recent documents by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		docs := a.lib.Search(args[0])
		if len(docs) == 0 {
			fmt.Println(subtle("No matches."))
			return nil
		}
		printDocuments(docs)
		return nil
	},
}

var libraryRemoveCmd = &cobra.Command{
	Use:     "rm URI",
	Aliases: []string{"remove"},
	Short:   "Remove a document and its bookmarks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.lib.RemoveDocument(args[0]); err != nil {
			return err
		}
		fmt.Println("Removed:", args[0])
		return nil
	},
}

var audioListCmd = &cobra.Command{
	Use:   "audio",
	Short: "List exported recordings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		arts := a.lib.Artifacts()
		if len(arts) == 0 {
			fmt.Println(subtle("No recordings yet. Create one with: voxread export FILE"))
			return nil
		}
		for _, art := range arts {
			size := ""
			if info, err := os.Stat(art.Path); err == nil {
				size = humanize.Bytes(uint64(info.Size())) //nolint:gosec
			}
			fmt.Printf("%s  %s  %s %s\n",
				art.ID,
				runewidth.FillRight(runewidth.Truncate(art.Name, 32, "…"), 32),
				subtle(humanize.Time(art.CreatedAt)),
				subtle(size))
		}
		return nil
	},
}

var audioRemoveCmd = &cobra.Command{
	Use:   "audio-rm ID",
	Short: "Delete a recording and its file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.lib.RemoveArtifact(args[0]); err != nil {
			return err
		}
		fmt.Println("Removed recording:", args[0])
		return nil
	},
}

func printDocuments(docs []library.Document) {
	for _, d := range docs {
		fmt.Printf("%s %s %s\n",
			runewidth.FillRight(runewidth.Truncate(d.Name, 40, "…"), 40),
			subtle(humanize.Time(d.OpenedAt)),
			subtle(d.URI))
	}
}

func init() {
	libraryScanCmd.Flags().BoolVarP(&scanAll, "all", "a", false, "include hidden and gitignored files")
	libraryCmd.AddCommand(libraryListCmd, libraryScanCmd, librarySearchCmd, libraryRemoveCmd, audioListCmd, audioRemoveCmd)
}
