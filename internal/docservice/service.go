// Package docservice coordinates stored documents, the search index and the
// live editor sessions that HTTP and MCP clients mutate.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/blockdoc/internal/apperr"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/checksum"
	"github.com/starford/blockdoc/internal/editor"
	"github.com/starford/blockdoc/internal/index"
	"github.com/starford/blockdoc/internal/parser"
	"github.com/starford/blockdoc/internal/richtext"
	"github.com/starford/blockdoc/internal/serializer"
	"github.com/starford/blockdoc/internal/storage"
)

// Event kinds passed to Notifier.
const (
	EventCreated = index.EventCreated
	EventUpdated = index.EventUpdated
	EventDeleted = index.EventDeleted
)

// Notifier is told about every persisted change, keyed by document name.
type Notifier func(kind, name string)

// Options tunes a Service. The zero value is usable.
type Options struct {
	// SanitizeHTML runs rich-text fields through the fragment policy before
	// they reach an editor.
	SanitizeHTML bool
	// MaxBlocks caps AddBlock; 0 means unlimited.
	MaxBlocks int
	Notify    Notifier
	Logger    *slog.Logger
	Now       func() time.Time
}

// DocumentSummary is a lightweight item in a list response.
type DocumentSummary struct {
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Checksum   string    `json:"checksum"`
	BlockCount int       `json:"block_count"`
	Media      []string  `json:"media"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentDetail is the full representation of an open document.
type DocumentDetail struct {
	Name     string              `json:"name"`
	Title    string              `json:"title"`
	Checksum string              `json:"checksum"`
	Revision uint64              `json:"revision"`
	Focused  *string             `json:"focusedBlockId"`
	Document serializer.Document `json:"document"`
}

// session is one loaded document. Lock order is sess.mu before Service.mu.
type session struct {
	mu       sync.Mutex
	ed       *editor.Editor
	checksum string
	deleted  bool
}

// Service coordinates storage, index and editor sessions.
type Service struct {
	store storage.Provider
	db    index.DocumentIndex
	opts  Options

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.DocumentIndex, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, db: db, opts: opts, sessions: make(map[string]*session)}
}

// List returns one page of indexed documents.
func (s *Service) List(_ context.Context, limit, offset int, sort string) ([]DocumentSummary, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentSummary, len(rows))
	for i, r := range rows {
		items[i] = DocumentSummary{
			Name:       NameOf(r.Path),
			Title:      r.Title,
			Checksum:   r.Checksum,
			BlockCount: r.BlockCount,
			Media:      nonNilSlice(r.Media),
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Get opens (or reuses) the session for name and describes it.
func (s *Service) Get(_ context.Context, name string) (*DocumentDetail, error) {
	sess, err := s.acquire(name)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return s.detail(name, sess), nil
}

// Export returns the stored form of the document as it stands now.
func (s *Service) Export(_ context.Context, name string) ([]byte, string, error) {
	sess, err := s.acquire(name)
	if err != nil {
		return nil, "", err
	}
	defer sess.mu.Unlock()
	data, err := sess.ed.Export(s.opts.Now())
	if err != nil {
		return nil, "", err
	}
	return data, sess.checksum, nil
}

// Create stores a new document. A nil raw creates the default document;
// otherwise raw must pass serializer.ValidateJSON.
func (s *Service) Create(_ context.Context, name string, raw []byte) (*DocumentDetail, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if raw != nil && !serializer.ValidateJSON(raw) {
		return nil, fmt.Errorf("docservice: create %s: %w", name, apperr.ErrInvalidDocument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[name]; ok {
		return nil, apperr.ErrAlreadyExists
	}
	if _, err := s.store.Read(PathOf(name)); err == nil {
		return nil, apperr.ErrAlreadyExists
	}

	sess := &session{ed: editor.New(raw)}
	s.sanitizeAll(sess.ed)
	if err := s.persist(name, sess, EventCreated); err != nil {
		return nil, err
	}
	s.sessions[name] = sess
	return s.detail(name, sess), nil
}

// Replace swaps the whole document for raw. A non-empty ifMatch must equal
// the checksum of the last persisted version.
func (s *Service) Replace(_ context.Context, name string, raw []byte, ifMatch string) (*DocumentDetail, error) {
	if !serializer.ValidateJSON(raw) {
		return nil, fmt.Errorf("docservice: replace %s: %w", name, apperr.ErrInvalidDocument)
	}
	sess, err := s.acquire(name)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	if ifMatch != "" && ifMatch != sess.checksum {
		return nil, apperr.ErrConflict
	}
	sess.ed.Replace(raw)
	s.sanitizeAll(sess.ed)
	if err := s.persist(name, sess, EventUpdated); err != nil {
		s.drop(name)
		return nil, err
	}
	return s.detail(name, sess), nil
}

// Delete removes a document from storage, index and the session table. It
// waits for in-flight edits on the document, and edits that were queued
// behind it fail with ErrNotFound instead of writing the file back.
func (s *Service) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	path := PathOf(name)
	if err := s.remove(name, path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteDocument(path); err != nil {
		return err
	}
	s.notify(EventDeleted, name)
	return nil
}

// AddBlock builds a block from spec and inserts it at position at. A nil at
// appends.
func (s *Service) AddBlock(_ context.Context, name string, spec BlockSpec, at *int) (block.Block, error) {
	b, err := spec.Build()
	if err != nil {
		return block.Block{}, err
	}
	if s.opts.SanitizeHTML {
		b = richtext.SanitizeBlock(b)
	}
	err = s.mutate(name, func(ed *editor.Editor) error {
		n := ed.Len()
		if s.opts.MaxBlocks > 0 && n >= s.opts.MaxBlocks {
			return fmt.Errorf("docservice: %d blocks: %w", n, apperr.ErrLimitExceeded)
		}
		pos := n
		if at != nil {
			pos = *at
		}
		return ed.AddBlock(b, pos)
	})
	if err != nil {
		return block.Block{}, err
	}
	return b, nil
}

// UpdateBlock shallow-merges patch into the data of block id and returns the
// result. A patch that would leave the block invalid is rejected whole.
func (s *Service) UpdateBlock(_ context.Context, name, id string, patch block.Patch) (block.Block, error) {
	if s.opts.SanitizeHTML {
		patch = richtext.SanitizePatch(patch)
	}
	var out block.Block
	err := s.mutate(name, func(ed *editor.Editor) error {
		cur, ok := ed.Block(id)
		if !ok {
			return fmt.Errorf("docservice: block %q: %w", id, apperr.ErrNotFound)
		}
		next, err := block.UpdateData(cur, patch)
		if err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("%w: %v", block.ErrInvalidPatch, err)
		}
		if err := ed.UpdateBlock(id, patch); err != nil {
			return err
		}
		out, _ = ed.Block(id)
		return nil
	})
	return out, err
}

// UpdateBlockStyle shallow-merges styles into block id and returns the result.
func (s *Service) UpdateBlockStyle(_ context.Context, name, id string, styles block.Styles) (block.Block, error) {
	var out block.Block
	err := s.mutate(name, func(ed *editor.Editor) error {
		if err := ed.UpdateBlockStyle(id, styles); err != nil {
			return err
		}
		out, _ = ed.Block(id)
		return nil
	})
	return out, err
}

// DeleteBlock removes block id.
func (s *Service) DeleteBlock(_ context.Context, name, id string) error {
	return s.mutate(name, func(ed *editor.Editor) error {
		return ed.DeleteBlock(id)
	})
}

// MoveBlock moves the block at from to position to.
func (s *Service) MoveBlock(_ context.Context, name string, from, to int) error {
	return s.mutate(name, func(ed *editor.Editor) error {
		return ed.MoveBlock(from, to)
	})
}

// Clear resets the document to one empty paragraph.
func (s *Service) Clear(ctx context.Context, name string) (*DocumentDetail, error) {
	err := s.mutate(name, func(ed *editor.Editor) error {
		ed.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

// SetFocus points the session focus at id; "" clears it. Focus lives only
// in memory. A non-empty id must name a block of the document.
func (s *Service) SetFocus(_ context.Context, name, id string) error {
	sess, err := s.acquire(name)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	if id != "" {
		if _, ok := sess.ed.Block(id); !ok {
			return fmt.Errorf("docservice: focus %q: %w", id, apperr.ErrNotFound)
		}
	}
	sess.ed.SetFocusedBlockID(id)
	return nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Path = NameOf(res[i].Path)
	}
	return res, nil
}

// Invalidate drops the cached session for a storage path when the file on
// disk no longer matches what this service last wrote. It is fed by the
// watcher so out-of-band edits show up on the next read.
func (s *Service) Invalidate(path string) {
	name := NameOf(path)
	s.mu.Lock()
	sess, ok := s.sessions[name]
	s.mu.Unlock()
	if !ok {
		return
	}

	data, err := s.store.Read(path)
	sess.mu.Lock()
	stale := err != nil || checksum.Sum(data) != sess.checksum
	sess.mu.Unlock()
	if stale {
		s.drop(name)
		s.opts.Logger.Debug("docservice: session invalidated", slog.String("name", name))
	}
}

// mutate runs fn against the session for name and persists the result. A
// failed persist drops the session so the next access reloads from disk.
func (s *Service) mutate(name string, fn func(ed *editor.Editor) error) error {
	sess, err := s.acquire(name)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	before := sess.ed.Revision()
	if err := fn(sess.ed); err != nil {
		return err
	}
	if sess.ed.Revision() == before {
		return nil
	}
	if err := s.persist(name, sess, EventUpdated); err != nil {
		s.drop(name)
		return err
	}
	return nil
}

// persist exports the session, writes it and refreshes the index row. The
// caller holds sess.mu or owns sess exclusively.
func (s *Service) persist(name string, sess *session, kind string) error {
	now := s.opts.Now()
	data, err := sess.ed.Export(now)
	if err != nil {
		return fmt.Errorf("docservice: export %s: %w", name, err)
	}
	path := PathOf(name)
	if err := s.store.Write(path, data); err != nil {
		return err
	}
	sess.checksum = checksum.Sum(data)
	if err := index.IndexFile(s.db, path, data, now); err != nil {
		// The document is on disk; the watcher or next sync repairs the row.
		s.opts.Logger.Warn("docservice: index failed", slog.String("name", name), slog.String("error", err.Error()))
	}
	s.opts.Logger.Debug("docservice: persisted",
		slog.String("name", name),
		slog.String("op", kind),
		slog.Uint64("revision", sess.ed.Revision()))
	s.notify(kind, name)
	return nil
}

// session returns the live session for name, loading it from storage on
// first use.
func (s *Service) session(name string) (*session, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[name]; ok {
		return sess, nil
	}
	data, err := s.store.Read(PathOf(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	sess := &session{ed: editor.New(data), checksum: checksum.Sum(data)}
	s.sessions[name] = sess
	return sess, nil
}

// acquire returns the session for name with sess.mu held. A session that
// was deleted while the caller waited for it is skipped, so the caller sees
// whatever storage holds now.
func (s *Service) acquire(name string) (*session, error) {
	for {
		sess, err := s.session(name)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.deleted {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// remove deletes the stored file for name while holding the session lock of
// the current session, if any, and retires that session.
func (s *Service) remove(name, path string) error {
	for {
		s.mu.Lock()
		sess := s.sessions[name]
		s.mu.Unlock()

		if sess != nil {
			sess.mu.Lock()
		}
		s.mu.Lock()
		if s.sessions[name] != sess {
			// Replaced while we waited; lock the new one instead.
			s.mu.Unlock()
			if sess != nil {
				sess.mu.Unlock()
			}
			continue
		}
		err := s.store.Delete(path)
		if err == nil {
			delete(s.sessions, name)
		}
		s.mu.Unlock()

		if sess != nil {
			if err == nil {
				sess.deleted = true
			}
			sess.mu.Unlock()
		}
		return err
	}
}

func (s *Service) drop(name string) {
	s.mu.Lock()
	delete(s.sessions, name)
	s.mu.Unlock()
}

func (s *Service) sanitizeAll(ed *editor.Editor) {
	if !s.opts.SanitizeHTML {
		return
	}
	blocks := ed.Blocks()
	for i, b := range blocks {
		blocks[i] = richtext.SanitizeBlock(b)
	}
	ed.ReplaceBlocks(blocks)
}

func (s *Service) detail(name string, sess *session) *DocumentDetail {
	blocks := sess.ed.Blocks()
	d := &DocumentDetail{
		Name:     name,
		Title:    parser.FromBlocks(blocks).Title,
		Checksum: sess.checksum,
		Revision: sess.ed.Revision(),
		Document: serializer.Serialize(blocks, s.opts.Now()),
	}
	if id, ok := sess.ed.FocusedBlockID(); ok {
		d.Focused = &id
	}
	return d
}

func (s *Service) notify(kind, name string) {
	if s.opts.Notify != nil {
		s.opts.Notify(kind, name)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
