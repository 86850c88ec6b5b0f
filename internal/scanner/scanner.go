// Package scanner walks the configured document roots and builds a
// per-document lifecycle view: detected state, checklist completion, and
// the transition the rules would apply.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/doclife/internal/apperr"
	"github.com/starford/doclife/internal/checksum"
	"github.com/starford/doclife/internal/ephemeral"
	"github.com/starford/doclife/internal/lifecycle"
	"github.com/starford/doclife/internal/models"
	"github.com/starford/doclife/internal/parser"
	"github.com/starford/doclife/internal/storage"
	"github.com/starford/doclife/internal/vcs"
)

// Options configures a Scanner.
type Options struct {
	Roots          []string
	Ephemeral      []string
	ExcludeFiles   []string
	Extensions     []string
	Matching       parser.Matching
	DefaultRange   string
	CodeExtensions []string
	// CacheSize bounds the parsed-document cache; zero uses 1024 entries.
	CacheSize int
}

// parsed is the content-derived part of a document record.
type parsed struct {
	title      string
	status     models.Status
	completion models.Completion
}

// Scanner enumerates managed documents and evaluates their lifecycle.
type Scanner struct {
	store   storage.Provider
	changes vcs.ChangeSource
	opts    Options
	filter  *ephemeral.Filter
	exclude map[string]struct{}
	exts    map[string]struct{}
	logger  *slog.Logger

	// cache holds parse results keyed by path and content checksum.
	cache *lru.Cache[string, parsed]
}

// New creates a Scanner. At least one document root is required.
func New(store storage.Provider, changes vcs.ChangeSource, opts Options, logger *slog.Logger) (*Scanner, error) {
	if len(opts.Roots) == 0 {
		return nil, fmt.Errorf("scanner: %w", apperr.ErrNoRoots)
	}
	if opts.Matching == "" {
		opts.Matching = parser.Lenient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	cache, err := lru.New[string, parsed](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("scanner: cache: %w", err)
	}
	exclude := make(map[string]struct{}, len(opts.ExcludeFiles))
	for _, name := range opts.ExcludeFiles {
		exclude[name] = struct{}{}
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".md"}
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Scanner{
		store:   store,
		changes: changes,
		opts:    opts,
		filter:  ephemeral.New(opts.Ephemeral),
		exclude: exclude,
		exts:    exts,
		logger:  logger,
		cache:   cache,
	}, nil
}

// Roots returns the configured document roots.
func (s *Scanner) Roots() []string {
	return s.opts.Roots
}

// IsEphemeral reports whether p sits under an ephemeral directory.
func (s *Scanner) IsEphemeral(p string) bool {
	return s.filter.Match(p)
}

// Managed reports whether p is a document the scanner would manage,
// ignoring whether it exists.
func (s *Scanner) Managed(p string) bool {
	p = path.Clean(p)
	if _, ok := s.exts[strings.ToLower(path.Ext(p))]; !ok {
		return false
	}
	return s.inScope(p)
}

// inScope reports whether p sits under a document root, outside every
// ephemeral directory, and is not an excluded file name.
func (s *Scanner) inScope(p string) bool {
	if s.filter.Match(p) {
		return false
	}
	if _, skip := s.exclude[path.Base(p)]; skip {
		return false
	}
	for _, root := range s.opts.Roots {
		root = path.Clean(root)
		if root == "." || p == root || strings.HasPrefix(p, root+"/") {
			return true
		}
	}
	return false
}

// ManagedDocuments lists every document under the roots, excluding ephemeral
// paths and excluded file names, sorted and deduplicated. A root that does
// not exist is skipped with a warning. Entries that could not be listed are
// included; Scan reports their error.
func (s *Scanner) ManagedDocuments() ([]string, error) {
	entries, err := s.entries()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out, nil
}

// entries walks every root once, skipping ephemeral directories before
// they are entered.
func (s *Scanner) entries() ([]models.DocumentMetadata, error) {
	seen := make(map[string]struct{})
	var out []models.DocumentMetadata
	for _, root := range s.opts.Roots {
		if _, err := s.store.Stat(root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("scanner: root missing", slog.String("root", root))
				continue
			}
			return nil, fmt.Errorf("scanner: root %s: %w", root, err)
		}
		metas, err := s.store.List(root, s.filter.MatchDir)
		if err != nil {
			return nil, fmt.Errorf("scanner: %w", err)
		}
		for _, m := range metas {
			if m.Error != "" {
				if !s.inScope(m.Path) {
					continue
				}
				s.logger.Warn("scanner: unreadable entry",
					slog.String("path", m.Path),
					slog.String("error", m.Error))
			} else if !s.Managed(m.Path) {
				continue
			}
			if _, dup := seen[m.Path]; dup {
				continue
			}
			seen[m.Path] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// CodeChanges diffs the revision range (or the default range when rng is
// empty) and reports whether any code outside the document roots changed.
// Failures are recorded on the result, never returned.
func (s *Scanner) CodeChanges(ctx context.Context, rng string) models.CodeChanges {
	cc := models.CodeChanges{Range: rng}
	if s.changes == nil {
		cc.Error = "no change source configured"
		return cc
	}
	r, err := vcs.ParseRange(rng, s.opts.DefaultRange)
	if err != nil {
		cc.Error = err.Error()
		return cc
	}
	cc.Range = r.String()

	paths, err := s.changes.ChangedPaths(ctx, r)
	if err != nil {
		s.logger.Warn("scanner: revision diff failed",
			slog.String("range", cc.Range),
			slog.String("error", err.Error()))
		cc.Error = err.Error()
		return cc
	}
	filter := vcs.CodeFilter{DocRoots: s.opts.Roots, Extensions: s.opts.CodeExtensions}
	cc.Paths = filter.CodePaths(paths)
	cc.Detected = len(cc.Paths) > 0
	return cc
}

// Completion counts checklist markers in one document. Ephemeral paths are
// refused with apperr.ErrEphemeral.
func (s *Scanner) Completion(docPath string) (models.Completion, error) {
	data, err := s.readManaged(docPath)
	if err != nil {
		return models.Completion{Path: docPath}, err
	}
	c := parser.Checklist(data)
	c.Path = docPath
	return c, nil
}

// Status detects one document's lifecycle state. Ephemeral paths are
// refused with apperr.ErrEphemeral.
func (s *Scanner) Status(docPath string) (models.Status, error) {
	data, err := s.readManaged(docPath)
	if err != nil {
		return models.Status{Path: docPath}, err
	}
	st := parser.DetectStatus(data, docPath, s.opts.Matching)
	st.Path = docPath
	return st, nil
}

// Inspect builds a document record without evaluating transitions.
func (s *Scanner) Inspect(docPath string) models.Document {
	data, err := s.read(docPath)
	if err != nil {
		return s.unreadable(docPath, err.Error())
	}
	doc := models.Document{Path: docPath}

	sum := checksum.Sum(data)
	p := s.parse(docPath, sum, data)
	st := p.status
	doc.Title = p.title
	doc.State = st.State
	doc.Source = st.Source
	doc.HeaderStatus = st.HeaderStatus
	doc.LastUpdated = st.LastUpdated
	doc.Completion = p.completion
	doc.TargetState = st.State
	doc.Checksum = sum
	return doc
}

// unreadable builds the record of a document whose content is unavailable:
// it keeps its path-derived state and is never transitioned.
func (s *Scanner) unreadable(docPath, errText string) models.Document {
	st := parser.DetectStatus(nil, docPath, s.opts.Matching)
	return models.Document{
		Path:        docPath,
		State:       st.State,
		Source:      st.Source,
		TargetState: st.State,
		Error:       errText,
	}
}

// parse returns the content-derived fields of docPath, reusing the cached
// result while the content is unchanged.
func (s *Scanner) parse(docPath, sum string, data []byte) parsed {
	key := docPath + "\x00" + sum
	if p, ok := s.cache.Get(key); ok {
		return p
	}
	p := parsed{
		title:      parser.Parse(data).Title,
		status:     parser.DetectStatus(data, docPath, s.opts.Matching),
		completion: parser.Checklist(data),
	}
	s.cache.Add(key, p)
	return p
}

// Scan evaluates every managed document against the transition rules. The
// code-change check runs once and is shared by all documents.
func (s *Scanner) Scan(ctx context.Context, rng string) (*models.ScanResult, error) {
	entries, err := s.entries()
	if err != nil {
		return nil, err
	}
	cc := s.CodeChanges(ctx, rng)

	result := &models.ScanResult{
		CodeChanges: cc,
		Documents:   make([]models.Document, 0, len(entries)),
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var doc models.Document
		if e.Error != "" {
			doc = s.unreadable(e.Path, e.Error)
		} else {
			doc = s.Inspect(e.Path)
		}
		if doc.Error == "" {
			d := lifecycle.Evaluate(doc.State, doc.Completion.Percentage, cc.Detected)
			doc.TargetState = d.Target
			doc.Reason = d.Reason
			doc.NeedsTransition = d.Changed(doc.State)
		}
		result.Documents = append(result.Documents, doc)
	}
	return result, nil
}

func (s *Scanner) read(docPath string) ([]byte, error) {
	data, err := s.store.Read(docPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", docPath, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// readManaged refuses ephemeral paths before touching the file.
func (s *Scanner) readManaged(docPath string) ([]byte, error) {
	if s.filter.Match(path.Clean(docPath)) {
		return nil, fmt.Errorf("%s: %w", docPath, apperr.ErrEphemeral)
	}
	return s.read(docPath)
}
