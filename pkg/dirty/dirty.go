// Package dirty tracks which batch inputs need their formula regenerated.
// A job is identified by its input path and fingerprinted by a digest of the
// input contents and of every setting that shapes the output.
package dirty

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"lukechampine.com/blake3"
)

// DefaultCacheDir is the default directory for storing batch state.
const DefaultCacheDir = ".wcet/cache"

// DefaultCacheFile is the default filename for batch state.
const DefaultCacheFile = "batch.msgpack"

const stateVersion = 1

// entry is the recorded outcome of one job.
type entry struct {
	Input  string `msgpack:"input"`
	Digest string `msgpack:"digest"`
	Output string `msgpack:"output"`
	Built  int64  `msgpack:"built"` // Unix timestamp
}

// state is the on-disk structure.
type state struct {
	Version int     `msgpack:"version"`
	Entries []entry `msgpack:"entries"`
}

// Tracker remembers the digest each input was last generated from.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	entries   map[string]entry
	cacheDir  string
	cacheFile string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCacheDir sets the cache directory.
func WithCacheDir(dir string) Option {
	return func(t *Tracker) {
		t.cacheDir = dir
	}
}

// WithCacheFile sets the cache filename.
func WithCacheFile(file string) Option {
	return func(t *Tracker) {
		t.cacheFile = file
	}
}

// New creates a new Tracker with optional configuration.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		entries:   make(map[string]entry),
		cacheDir:  DefaultCacheDir,
		cacheFile: DefaultCacheFile,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Digest hashes r followed by every salt with blake3. Salts are length
// prefixed so that ("ab", "c") and ("a", "bc") differ.
func Digest(r io.Reader, salts ...string) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing input: %w", err)
	}
	for _, s := range salts {
		fmt.Fprintf(h, "\x00%d:%s", len(s), s)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestFile is Digest over the contents of path.
func DigestFile(path string, salts ...string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()
	return Digest(f, salts...)
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Stale reports whether input must be regenerated: it was never recorded,
// its digest changed, or its recorded output no longer exists.
func (t *Tracker) Stale(input, digest string) bool {
	t.mu.RLock()
	e, ok := t.entries[key(input)]
	t.mu.RUnlock()

	if !ok || e.Digest != digest {
		return true
	}
	if e.Output == "" {
		return false
	}
	_, err := os.Stat(e.Output)
	return err != nil
}

// Record stores the digest input was generated from and where the formula
// was written.
func (t *Tracker) Record(input, digest, output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(input)
	t.entries[k] = entry{
		Input:  k,
		Digest: digest,
		Output: output,
		Built:  time.Now().Unix(),
	}
}

// Output returns the recorded output of input.
func (t *Tracker) Output(input string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key(input)]
	return e.Output, ok
}

// Forget drops input from the tracker.
func (t *Tracker) Forget(input string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key(input))
}

// Prune drops every entry whose input is not in keep and returns how many
// were dropped.
func (t *Tracker) Prune(keep []string) int {
	live := make(map[string]bool, len(keep))
	for _, p := range keep {
		live[key(p)] = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k := range t.entries {
		if !live[k] {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked inputs.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Inputs returns the tracked inputs, sorted.
func (t *Tracker) Inputs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (t *Tracker) cachePath() string {
	return filepath.Join(t.cacheDir, t.cacheFile)
}

// Save persists the state to the cache file.
func (t *Tracker) Save() error {
	if err := os.MkdirAll(t.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.Create(t.cachePath())
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()
	return t.SaveTo(f)
}

// Load restores the state from the cache file. A missing file leaves the
// tracker empty.
func (t *Tracker) Load() error {
	f, err := os.Open(t.cachePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	return t.LoadFrom(f)
}

// SaveTo writes the state to w.
func (t *Tracker) SaveTo(w io.Writer) error {
	t.mu.RLock()
	data := state{Version: stateVersion, Entries: make([]entry, 0, len(t.entries))}
	for _, e := range t.entries {
		data.Entries = append(data.Entries, e)
	}
	t.mu.RUnlock()

	sort.Slice(data.Entries, func(i, j int) bool { return data.Entries[i].Input < data.Entries[j].Input })
	if err := msgpack.NewEncoder(w).Encode(&data); err != nil {
		return fmt.Errorf("failed to encode batch state: %w", err)
	}
	return nil
}

// LoadFrom reads the state from r, replacing the current one.
func (t *Tracker) LoadFrom(r io.Reader) error {
	var data state
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode batch state: %w", err)
	}
	if data.Version != stateVersion {
		return fmt.Errorf("unsupported batch state version %d", data.Version)
	}

	entries := make(map[string]entry, len(data.Entries))
	for _, e := range data.Entries {
		entries[e.Input] = e
	}
	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
	return nil
}
