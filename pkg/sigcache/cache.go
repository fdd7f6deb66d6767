// Package sigcache implements the optional signature-acquisition
// collaborator's on-disk cache: a SQLite-backed store of previously-loaded
// SignatureSets keyed by a caller-supplied content hash, so repeated scans
// against the same signature source skip re-parsing YAML. Grounded on the
// teacher's pkg/store, which uses the same pure-Go modernc.org/sqlite driver
// (no CGO) behind database/sql.
package sigcache

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
	"golang.org/x/sync/singleflight"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// Cache is a SQLite-backed cache of SignatureSets. Not on the scan hot
// path: it is consulted once, before Scanner.Scan, by the signature
// acquisition collaborator.
type Cache struct {
	db    *sql.DB
	group singleflight.Group
}

// Open creates or opens a cache database at path. Use ":memory:" for a
// process-local, non-persistent cache (useful for tests).
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sigcache: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every SQLite connection to ":memory:" is its own database; keep a
		// single pooled connection so all callers see the same one.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sigcache: enabling WAL mode: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signature_sets (
			content_hash TEXT PRIMARY KEY,
			payload      BLOB NOT NULL
		)
	`)
	return err
}

type cachedSignature struct {
	ID        int64    `json:"id"`
	Pattern   string   `json:"pattern"`
	Anchored  bool     `json:"anchored,omitempty"`
	TimeoutMS uint32   `json:"timeout_ms,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
}

// Get returns the SignatureSet cached under contentHash, if present.
func (c *Cache) Get(contentHash string) (*types.SignatureSet, bool, error) {
	var payload []byte
	err := c.db.QueryRow(
		"SELECT payload FROM signature_sets WHERE content_hash = ?", contentHash,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sigcache: get %s: %w", contentHash, err)
	}

	var cached []cachedSignature
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, fmt.Errorf("sigcache: decode cached signature set: %w", err)
	}

	set := types.NewSignatureSet()
	for _, cs := range cached {
		if err := set.Add(&types.Signature{
			ID:        cs.ID,
			Pattern:   cs.Pattern,
			Anchored:  cs.Anchored,
			TimeoutMS: cs.TimeoutMS,
			Keywords:  cs.Keywords,
		}); err != nil {
			return nil, false, err
		}
	}
	set.Build()
	return set, true, nil
}

// Put stores set under contentHash, replacing any existing entry.
func (c *Cache) Put(contentHash string, set *types.SignatureSet) error {
	cached := make([]cachedSignature, 0, set.Len())
	for _, sig := range set.Signatures() {
		cached = append(cached, cachedSignature{
			ID:        sig.ID,
			Pattern:   sig.Pattern,
			Anchored:  sig.Anchored,
			TimeoutMS: sig.TimeoutMS,
			Keywords:  sig.Keywords,
		})
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("sigcache: encode signature set: %w", err)
	}

	_, err = c.db.Exec(
		"INSERT INTO signature_sets (content_hash, payload) VALUES (?, ?) "+
			"ON CONFLICT(content_hash) DO UPDATE SET payload = excluded.payload",
		contentHash, payload,
	)
	if err != nil {
		return fmt.Errorf("sigcache: put %s: %w", contentHash, err)
	}
	return nil
}

// GetOrLoad returns the SignatureSet cached under contentHash if present,
// otherwise calls load once and stores its result under contentHash before
// returning it. Concurrent GetOrLoad calls on the same Cache for the same
// contentHash (e.g. a long-running process reloading signatures from
// several goroutines) share a single in-flight load via singleflight, so
// only one of them pays the YAML-parse cost for a given miss. The
// deduplication is per Cache value: separate processes sharing one
// database file may each load on a miss.
func (c *Cache) GetOrLoad(contentHash string, load func() (*types.SignatureSet, error)) (*types.SignatureSet, error) {
	if set, ok, err := c.Get(contentHash); err != nil {
		return nil, err
	} else if ok {
		return set, nil
	}

	result, err, _ := c.group.Do(contentHash, func() (interface{}, error) {
		set, ok, err := c.Get(contentHash)
		if err != nil {
			return nil, err
		}
		if ok {
			return set, nil
		}
		set, err = load()
		if err != nil {
			return nil, err
		}
		if err := c.Put(contentHash, set); err != nil {
			return nil, err
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.SignatureSet), nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
