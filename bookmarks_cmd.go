package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var bookmarkLabel string

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Short:   "Manage bookmarks",
	Example: paragraph("voxread bookmarks add report.md 1024 --label \"chapter two\"\nvoxread bookmarks list report.md\nvoxread bookmarks rm 1700000000000"),
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add FILE OFFSET",
	Short: "Bookmark a character offset in a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("offset must be an integer: %w", err)
		}

		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		content, err := a.loadDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		b, err := a.lib.AddBookmark(abs, offset, bookmarkLabel, content)
		if err != nil {
			return err
		}
		fmt.Printf("Bookmarked %s at offset %d (id %s)\n", b.Label, b.Offset, b.ID)
		return nil
	},
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "List a document's bookmarks, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		marks := a.lib.Bookmarks(abs)
		if len(marks) == 0 {
			fmt.Println(subtle("No bookmarks for this document."))
			return nil
		}
		for _, b := range marks {
			fmt.Printf("%s  @%-8d %s %s\n",
				b.ID,
				b.Offset,
				runewidth.FillRight(runewidth.Truncate(b.Label, 24, "…"), 24),
				subtle(humanize.Time(b.CreatedAt)))
		}
		return nil
	},
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove"},
	Short:   "Delete a bookmark",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.lib.RemoveBookmark(args[0]); err != nil {
			return err
		}
		fmt.Println("Removed bookmark:", args[0])
		return nil
	},
}

func init() {
	bookmarksAddCmd.Flags().StringVar(&bookmarkLabel, "label", "", "bookmark label (defaults to a content snippet)")
	bookmarksCmd.AddCommand(bookmarksAddCmd, bookmarksListCmd, bookmarksRemoveCmd)
}
