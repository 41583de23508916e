// Package library tracks the user's documents, their bookmarks, and exported
// audio artifacts. Records are persisted through the keyed store; bookmarks
// cascade-delete with their document.
package library

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"

	"github.com/voxread/voxread/internal/store"
	"github.com/voxread/voxread/tts"
)

// RecentLimit caps the recent-documents list.
const RecentLimit = 10

// snippetLength bounds the default bookmark label taken from content.
const snippetLength = 20

var (
	// ErrOffsetOutOfRange is returned when a bookmark offset falls outside
	// the document content it was created against.
	ErrOffsetOutOfRange = errors.New("bookmark offset out of range")

	// ErrNotFound is returned when a record id or URI is unknown.
	ErrNotFound = errors.New("record not found")
)

const (
	keyDocuments = "documents"
	keyBookmarks = "bookmarks"
	keyArtifacts = "artifacts"
)

// Document is a reference to a readable file. Re-opening a document replaces
// its record rather than mutating it.
type Document struct {
	URI      string
	Name     string
	MIMEType string
	OpenedAt time.Time
}

// Bookmark is a saved character offset within a document.
type Bookmark struct {
	ID          string
	DocumentURI string
	Label       string
	Offset      int
	CreatedAt   time.Time
}

// Library is the persistent catalog of documents, bookmarks and audio
// artifacts. It is safe for concurrent use.
type Library struct {
	mu     sync.Mutex
	db     *store.Store
	logger *log.Logger
	now    func() time.Time

	documents []Document
	bookmarks []Bookmark
	artifacts []tts.Artifact
	lastID    int64
}

// Open loads the library from db. Missing records start empty.
func Open(db *store.Store, logger *log.Logger) (*Library, error) {
	if logger == nil {
		logger = log.Default()
	}
	l := &Library{db: db, logger: logger, now: time.Now}

	if _, err := db.Get(keyDocuments, &l.documents); err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	if _, err := db.Get(keyBookmarks, &l.bookmarks); err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}
	if _, err := db.Get(keyArtifacts, &l.artifacts); err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	return l, nil
}

// Touch records doc as the most recently opened document. The recent list is
// deduplicated by URI and capped at RecentLimit; the oldest entry falls off.
func (l *Library) Touch(doc Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if doc.OpenedAt.IsZero() {
		doc.OpenedAt = l.now()
	}

	docs := make([]Document, 0, len(l.documents)+1)
	docs = append(docs, doc)
	for _, d := range l.documents {
		if d.URI == doc.URI {
			continue
		}
		docs = append(docs, d)
	}
	if len(docs) > RecentLimit {
		docs = docs[:RecentLimit]
	}
	l.documents = docs
	return l.db.Put(keyDocuments, l.documents)
}

// Documents returns the recent documents, most recently opened first.
func (l *Library) Documents() []Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Document(nil), l.documents...)
}

// Document looks up a document by URI.
func (l *Library) Document(uri string) (Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.documents {
		if d.URI == uri {
			return d, nil
		}
	}
	return Document{}, fmt.Errorf("%w: document %q", ErrNotFound, uri)
}

// RemoveDocument removes the document and every bookmark belonging to it.
func (l *Library) RemoveDocument(uri string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	docs := l.documents[:0]
	found := false
	for _, d := range l.documents {
		if d.URI == uri {
			found = true
			continue
		}
		docs = append(docs, d)
	}
	if !found {
		return fmt.Errorf("%w: document %q", ErrNotFound, uri)
	}
	l.documents = docs
	if err := l.db.Put(keyDocuments, l.documents); err != nil {
		return err
	}

	marks := l.bookmarks[:0]
	for _, b := range l.bookmarks {
		if b.DocumentURI == uri {
			continue
		}
		marks = append(marks, b)
	}
	l.bookmarks = marks
	return l.db.Put(keyBookmarks, l.bookmarks)
}

// Search fuzzy-matches query against document names and returns matching
// documents, best match first. An empty query returns the full recent list.
func (l *Library) Search(query string) []Document {
	l.mu.Lock()
	defer l.mu.Unlock()

	if query == "" {
		return append([]Document(nil), l.documents...)
	}

	names := make([]string, len(l.documents))
	for i, d := range l.documents {
		names[i] = d.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]Document, 0, len(matches))
	for _, m := range matches {
		out = append(out, l.documents[m.Index])
	}
	return out
}

// AddBookmark saves an offset into the document's content. The offset must
// satisfy 0 <= offset <= len(content) at creation; stored offsets are never
// renormalized afterwards. An empty label defaults to a short content
// snippet at the offset.
func (l *Library) AddBookmark(uri string, offset int, label, content string) (Bookmark, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if offset < 0 || offset > len(content) {
		return Bookmark{}, fmt.Errorf("%w: offset %d, content length %d", ErrOffsetOutOfRange, offset, len(content))
	}
	if label == "" {
		label = snippet(content, offset)
	}

	b := Bookmark{
		ID:          l.nextID(),
		DocumentURI: uri,
		Label:       label,
		Offset:      offset,
		CreatedAt:   l.now(),
	}
	l.bookmarks = append(l.bookmarks, b)
	if err := l.db.Put(keyBookmarks, l.bookmarks); err != nil {
		return Bookmark{}, err
	}
	return b, nil
}

// Bookmarks lists the document's bookmarks, most recently created first.
func (l *Library) Bookmarks(uri string) []Bookmark {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Bookmark
	for _, b := range l.bookmarks {
		if b.DocumentURI == uri {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Resolve returns the bookmark's stored offset for feeding a resume. The
// offset is returned unchanged even if the document's content has since
// diverged.
func (l *Library) Resolve(b Bookmark) int {
	return b.Offset
}

// RemoveBookmark deletes a single bookmark by id.
func (l *Library) RemoveBookmark(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	marks := l.bookmarks[:0]
	found := false
	for _, b := range l.bookmarks {
		if b.ID == id {
			found = true
			continue
		}
		marks = append(marks, b)
	}
	if !found {
		return fmt.Errorf("%w: bookmark %q", ErrNotFound, id)
	}
	l.bookmarks = marks
	return l.db.Put(keyBookmarks, l.bookmarks)
}

// Register adds an exported audio artifact to the catalog.
func (l *Library) Register(a tts.Artifact) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.artifacts = append(l.artifacts, a)
	return l.db.Put(keyArtifacts, l.artifacts)
}

// Artifacts lists exported audio, most recently created first.
func (l *Library) Artifacts() []tts.Artifact {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := append([]tts.Artifact(nil), l.artifacts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// RemoveArtifact deletes the record and best-effort unlinks the backing
// file. A file that cannot be removed is logged, not returned as an error.
func (l *Library) RemoveArtifact(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	arts := l.artifacts[:0]
	var removed *tts.Artifact
	for _, a := range l.artifacts {
		if a.ID == id {
			removed = &a
			continue
		}
		arts = append(arts, a)
	}
	if removed == nil {
		return fmt.Errorf("%w: artifact %q", ErrNotFound, id)
	}
	l.artifacts = arts
	if err := l.db.Put(keyArtifacts, l.artifacts); err != nil {
		return err
	}

	if removed.Path != "" {
		if err := os.Remove(removed.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("could not remove audio file", "path", removed.Path, "error", err)
		}
	}
	return nil
}

// nextID yields a millisecond-timestamp id, bumped past the previous one so
// ids created within the same millisecond stay unique.
func (l *Library) nextID() string {
	ms := l.now().UnixMilli()
	if ms <= l.lastID {
		ms = l.lastID + 1
	}
	l.lastID = ms
	return strconv.FormatInt(ms, 10)
}

func snippet(content string, offset int) string {
	end := offset + snippetLength
	if end > len(content) {
		end = len(content)
	}
	s := content[offset:end]
	if s == "" {
		return "Bookmark"
	}
	return s
}
