package vm

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

// ModuleStore is a content-addressed cache of module sources and their
// wire-encoded export blocks, keyed by the SHA-256 of the source text.
// Multiple runtimes (and multiple processes) may share one store; rows
// record which runtime wrote them.
type ModuleStore struct {
	db *sql.DB
}

// HashSource returns the store key for a module source.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// OpenModuleStore opens (creating if needed) a store at the given path.
func OpenModuleStore(path string) (*ModuleStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening module store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS modules (
			hash       TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			source     TEXT NOT NULL,
			exports    BLOB,
			runtime_id TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_modules_name ON modules(name);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing module store: %w", err)
	}

	log.Debugf("module store open: %s", path)
	return &ModuleStore{db: db}, nil
}

// Close releases the underlying database.
func (ms *ModuleStore) Close() error {
	return ms.db.Close()
}

// Save records a module's source and exports under its content hash and
// returns the hash. Saving identical source twice overwrites in place.
// The exports cell must be wire-encodable (stable, no runtime handles).
func (ms *ModuleStore) Save(rt *Runtime, name, source string, exports Cell) (string, error) {
	blob, err := rt.MarshalCell(exports)
	if err != nil {
		return "", fmt.Errorf("encoding exports of %s: %w", name, err)
	}
	hash := HashSource(source)
	_, err = ms.db.Exec(`
		INSERT OR REPLACE INTO modules (hash, name, source, exports, runtime_id)
		VALUES (?, ?, ?, ?, ?)
	`, hash, name, source, blob, rt.ID.String())
	if err != nil {
		return "", fmt.Errorf("saving module %s: %w", name, err)
	}
	return hash, nil
}

// Load fetches a module by content hash, decoding its exports into the
// given runtime. sql.ErrNoRows when the hash is unknown.
func (ms *ModuleStore) Load(rt *Runtime, hash string) (source string, exports Cell, err error) {
	var blob []byte
	err = ms.db.QueryRow(`
		SELECT source, exports FROM modules WHERE hash = ?
	`, hash).Scan(&source, &blob)
	if err != nil {
		return "", Cell{}, fmt.Errorf("loading module %s: %w", hash, err)
	}
	exports, err = rt.UnmarshalCell(blob)
	if err != nil {
		return "", Cell{}, fmt.Errorf("decoding exports of %s: %w", hash, err)
	}
	return source, exports, nil
}

// LoadByName fetches the most recently saved module with the given name.
func (ms *ModuleStore) LoadByName(rt *Runtime, name string) (hash string, exports Cell, err error) {
	var blob []byte
	err = ms.db.QueryRow(`
		SELECT hash, exports FROM modules
		WHERE name = ? ORDER BY created_at DESC LIMIT 1
	`, name).Scan(&hash, &blob)
	if err != nil {
		return "", Cell{}, fmt.Errorf("loading module %s: %w", name, err)
	}
	exports, err = rt.UnmarshalCell(blob)
	if err != nil {
		return "", Cell{}, fmt.Errorf("decoding exports of %s: %w", name, err)
	}
	return hash, exports, nil
}

// Contains reports whether source identical to this text is already cached.
func (ms *ModuleStore) Contains(source string) (bool, error) {
	var one int
	err := ms.db.QueryRow(`
		SELECT 1 FROM modules WHERE hash = ?
	`, HashSource(source)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probing module store: %w", err)
	}
	return true, nil
}
