package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/tendril/internal/dto"
	"github.com/aretw0/tendril/pkg/domain"
)

// WatchPattern selects the documents that hold graphs.
const WatchPattern = "**/*.{md,json,yaml,yml}"

// Loader adapts a Loam repository to the GraphLoader interface. Each
// document holds one graph: JSON and YAML documents carry it at the top
// level, Markdown documents in their frontmatter with the body used as the
// description.
type Loader struct {
	Repo *loam.TypedRepository[dto.GraphDocument]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[dto.GraphDocument]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only, strict Loam repository at path and wraps it.
// Strict mode makes every format decode numbers the same way.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[dto.GraphDocument](repo)), nil
}

// Load retrieves the graph stored under name.
func (l *Loader) Load(ctx context.Context, name string) (domain.GraphSpec, error) {
	var (
		docID   string
		data    dto.GraphDocument
		content string
	)
	if doc, err := l.Repo.Get(ctx, name); err == nil {
		docID, data, content = doc.ID, doc.Data, doc.Content
	} else {
		// Documents that declare their own name are only found by a scan.
		docs, listErr := l.Repo.List(ctx)
		if listErr != nil {
			return domain.GraphSpec{}, fmt.Errorf("loam list failed: %w", listErr)
		}
		found := false
		for _, d := range docs {
			if graphName(d.ID, d.Data) == name {
				docID, data, content = d.ID, d.Data, d.Content
				found = true
				break
			}
		}
		if !found {
			return domain.GraphSpec{}, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
		}
	}

	if data.Description == "" {
		data.Description = strings.TrimSpace(content)
	}
	if got := graphName(docID, data); got != name {
		return domain.GraphSpec{}, fmt.Errorf("%w: %s (document %s declares %q)", domain.ErrGraphNotFound, name, docID, got)
	}
	return data.ToSpec(name)
}

// List returns the graph names in lexical order.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		name := graphName(doc.ID, doc.Data)
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: graph '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Watch implements ports.Watchable. The channel yields graph names, which
// differ from document ids when a document declares its own name. A
// renamed or deleted document also reports the name it used to hold, so
// the driver can uninstall it. The channel closes when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	names, err := l.index(ctx)
	if err != nil {
		names = make(map[string]string)
	}
	events, err := l.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				var changed []string
				changed, names = l.changed(ctx, names, trimExtension(evt.ID))
				for _, name := range changed {
					select {
					case ch <- name:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ch, nil
}

// index maps document ids, without extension, to the graph they hold.
func (l *Loader) index(ctx context.Context) (map[string]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[trimExtension(doc.ID)] = graphName(doc.ID, doc.Data)
	}
	return names, nil
}

// changed rebuilds the index after a change to doc and returns the graph
// names affected. When the repository cannot be listed the previous index
// is kept.
func (l *Loader) changed(ctx context.Context, names map[string]string, doc string) ([]string, map[string]string) {
	before, had := names[doc]
	if fresh, err := l.index(ctx); err == nil {
		names = fresh
	}
	after, has := names[doc]

	switch {
	case had && has && before != after:
		return []string{before, after}, names
	case had:
		return []string{before}, names
	case has:
		return []string{after}, names
	default:
		return []string{doc}, names
	}
}

func graphName(docID string, data dto.GraphDocument) string {
	if data.Name != "" {
		return data.Name
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext == "" {
		return id
	}
	return strings.TrimSuffix(id, ext)
}
