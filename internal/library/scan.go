package library

import (
	"path/filepath"
	"strings"

	"github.com/muesli/gitcha"
)

// readableExtensions are the document types the reader can load.
var readableExtensions = []string{"*.txt", "*.md", "*.markdown", "*.docx"}

// Scan walks dir for readable documents, honoring .gitignore rules, and
// returns them as library documents. Nothing is persisted; callers Touch the
// ones they want in the recent list.
func Scan(dir string, showAll bool) ([]Document, error) {
	var (
		ch  chan gitcha.SearchResult
		err error
	)
	if showAll {
		ch, err = gitcha.FindAllFilesExcept(dir, readableExtensions, nil)
	} else {
		ch, err = gitcha.FindFilesExcept(dir, readableExtensions, nil)
	}
	if err != nil {
		return nil, err
	}

	var docs []Document
	for res := range ch {
		docs = append(docs, Document{
			URI:      res.Path,
			Name:     filepath.Base(res.Path),
			MIMEType: MIMETypeFor(res.Path),
			OpenedAt: res.Info.ModTime(),
		})
	}
	return docs, nil
}

// MIMETypeFor maps a file extension to the document MIME type recorded in
// the library.
func MIMETypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain"
	}
}
