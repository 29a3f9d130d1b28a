package moduleconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// indexDocument is the optional module key → document path mapping.
const indexDocument = "index.json"

// ErrModuleNotFound indicates no configuration document resolves for the key.
var ErrModuleNotFound = errors.New("module configuration not found")

// Loader resolves module keys to validated configuration documents. Documents
// are cached for the loader's lifetime and never invalidated; a restart is
// required to pick up edited configuration.
type Loader struct {
	fsys     fs.FS
	compiled *jsonschema.Schema

	mu    sync.RWMutex
	index map[string]string
	cache map[string]*Config
}

// NewLoader builds a Loader over the given filesystem, compiling the
// document schema and reading the optional index document.
func NewLoader(fsys fs.FS) (*Loader, error) {
	if fsys == nil {
		panic("module configuration filesystem is required")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("memory://moduleconf/document.json", strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("register module document schema: %w", err)
	}
	compiled, err := compiler.Compile("memory://moduleconf/document.json")
	if err != nil {
		return nil, fmt.Errorf("compile module document schema: %w", err)
	}

	loader := &Loader{
		fsys:     fsys,
		compiled: compiled,
		cache:    make(map[string]*Config),
	}

	if err := loader.readIndex(); err != nil {
		return nil, err
	}

	return loader, nil
}

// Keys returns the module keys known to the loader, from the index document.
func (l *Loader) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.index))
	for key := range l.index {
		keys = append(keys, key)
	}
	return keys
}

// Load resolves a module key to its validated configuration. Results are
// cached by key.
func (l *Loader) Load(moduleKey string) (*Config, error) {
	moduleKey = strings.TrimSpace(moduleKey)
	if moduleKey == "" {
		return nil, errors.New("module key is required")
	}

	l.mu.RLock()
	cached, ok := l.cache[moduleKey]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	config, err := l.loadDocument(moduleKey)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[moduleKey] = config
	l.mu.Unlock()

	return config, nil
}

func (l *Loader) loadDocument(moduleKey string) (*Config, error) {
	path := l.resolvePath(moduleKey)

	data, err := fs.ReadFile(l.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q (looked at %s)", ErrModuleNotFound, moduleKey, path)
		}
		return nil, fmt.Errorf("read module configuration %s: %w", path, err)
	}

	// An HTML body here means a routing fallback page was served instead of
	// the configuration document. Detect it before any JSON parse attempt.
	if looksLikeHTML(data) {
		return nil, fmt.Errorf("module configuration %s resolved to an HTML document; check the configuration routing for %q", path, moduleKey)
	}

	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("module configuration %s is not valid JSON: %w", path, err)
	}

	if err := l.compiled.Validate(document); err != nil {
		return nil, fmt.Errorf("module configuration %s failed schema validation: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("decode module configuration %s: %w", path, err)
	}
	config.Key = moduleKey

	return &config, nil
}

// resolvePath consults the index first, then falls back to the conventional
// "<key>.json" path.
func (l *Loader) resolvePath(moduleKey string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if path, ok := l.index[moduleKey]; ok {
		return path
	}
	return moduleKey + ".json"
}

func (l *Loader) readIndex() error {
	data, err := fs.ReadFile(l.fsys, indexDocument)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read module index: %w", err)
	}

	var index map[string]string
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("module index is not valid JSON: %w", err)
	}

	l.index = index
	return nil
}

func looksLikeHTML(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}
