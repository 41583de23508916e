// Package extract turns documents into plain text for reading aloud.
// Plain text passes through, markdown is flattened locally, and DOCX is
// extracted by the backend.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrOfflineExtraction is returned when a document needs the backend but no
// connectivity is available.
var ErrOfflineExtraction = errors.New("document extraction requires a network connection")

// ErrUnsupportedType is returned for file types the reader cannot load.
var ErrUnsupportedType = errors.New("unsupported document type")

// Remote is the backend extraction endpoint, satisfied by the api client.
type Remote interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Connectivity gates the remote path.
type Connectivity interface {
	Online() bool
}

// Extractor loads documents as plain text.
type Extractor struct {
	remote Remote
	net    Connectivity
}

// New creates an extractor. remote may be nil when the backend is not
// configured; DOCX extraction then always fails.
func New(remote Remote, net Connectivity) *Extractor {
	return &Extractor{remote: remote, net: net}
}

// Load reads the document at path and returns its text content. The format
// is chosen by file extension.
func (e *Extractor) Load(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		return string(data), nil

	case ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		return Plain(data)

	case ".docx":
		if e.net != nil && !e.net.Online() {
			return "", ErrOfflineExtraction
		}
		if e.remote == nil {
			return "", ErrOfflineExtraction
		}
		return e.remote.ExtractText(ctx, path)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
}

// Plain flattens markdown source to readable text: headings and paragraphs
// become plain lines, inline markup is dropped, code blocks are kept
// verbatim.
func Plain(source []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if isBlock(n) && b.Len() > 0 {
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.AutoLink:
			b.Write(node.URL(source))
		case *ast.CodeSpan:
			// children are Text nodes, handled above
		case *ast.FencedCodeBlock:
			writeLines(&b, source, node.Lines())
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			writeLines(&b, source, node.Lines())
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walk markdown: %w", err)
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func isBlock(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.Blockquote,
		*ast.FencedCodeBlock, *ast.CodeBlock:
		return true
	}
	return false
}

func writeLines(b *strings.Builder, source []byte, lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
}
