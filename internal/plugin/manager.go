package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/pinchboard/internal/engine"
)

// ManifestFile is the manifest name inside each plugin directory.
const ManifestFile = "plugin.json"

var ErrPluginNotFound = errors.New("plugin not found")

// Manager holds the plugins found in one directory.
type Manager struct {
	dir string
	log logrus.FieldLogger

	mu     sync.RWMutex
	byName map[string]*Plugin
	sorted []*Plugin
}

func NewManager(dir string, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		dir:    dir,
		log:    log.WithField("component", "plugins"),
		byName: map[string]*Plugin{},
	}
}

// Discover replaces the known plugins with the subdirectories of the plugin
// directory that hold a usable manifest. A missing directory means no
// plugins; broken plugins are logged and skipped.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		entries, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("scan plugins: %w", err)
	}

	found := map[string]*Plugin{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := m.load(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		if prev, dup := found[p.Manifest.Name]; dup {
			m.log.WithFields(logrus.Fields{"plugin": p.Manifest.Name, "kept": prev.Path}).Warn("skipping duplicate plugin name")
			continue
		}
		found[p.Manifest.Name] = p
	}

	sorted := slices.SortedFunc(maps.Values(found), func(a, b *Plugin) int {
		return strings.Compare(a.Manifest.Name, b.Manifest.Name)
	})

	m.mu.Lock()
	m.byName, m.sorted = found, sorted
	m.mu.Unlock()

	names := make([]string, len(sorted))
	for i, p := range sorted {
		names[i] = p.Manifest.Name
	}
	m.log.WithField("plugins", names).Info("plugins discovered")
	return nil
}

// load reads one plugin directory. Failures other than a missing manifest
// are logged before being returned.
func (m *Manager) load(dir string) (*Plugin, error) {
	path := filepath.Join(dir, ManifestFile)
	log := m.log.WithField("path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warn("skipping unreadable plugin manifest")
		}
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.WithError(err).Warn("skipping invalid plugin manifest")
		return nil, err
	}
	if manifest.Name == "" || manifest.Executable == "" {
		log.Warn("skipping plugin manifest without name or executable")
		return nil, errors.New("incomplete manifest")
	}

	exe := filepath.Join(dir, manifest.Executable)
	if info, err := os.Stat(exe); err != nil || info.IsDir() {
		log.WithField("executable", exe).Warn("skipping plugin without executable")
		return nil, fmt.Errorf("plugin %s: missing executable", manifest.Name)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: exe}, nil
}

func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.byName[name]; ok {
		return p, nil
	}
	return nil, ErrPluginNotFound
}

// List returns the plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.sorted)
}

// Subscribers returns the plugins that want ev, sorted by name.
func (m *Manager) Subscribers(ev engine.Event) []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Plugin
	for _, p := range m.sorted {
		if p.Manifest.Wants(ev) {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) Dir() string {
	return m.dir
}
