package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"linkdedup/internal/models"
)

// Storage persists batches of deduplication results.
type Storage struct {
	db     *sql.DB
	dbPath string
}

// New opens (creating if needed) the results database.
func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Current schema version
const schemaVersion = 2

// migrations defines all schema migrations
// Each migration should be idempotent (safe to run multiple times)
var migrations = []struct {
	version     int
	description string
	up          string
}{
	{
		version:     1,
		description: "Initial schema",
		up:          "", // Handled by base schema creation
	},
	{
		version:     2,
		description: "Persist show-duplicates flag on primary rows",
		up: `
			ALTER TABLE items ADD COLUMN show_dups INTEGER DEFAULT 0;
		`,
	},
}

// init creates the database schema
func (s *Storage) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_items INTEGER NOT NULL,
		num_with_dups INTEGER NOT NULL,
		total_dups INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		handle TEXT NOT NULL,
		url TEXT DEFAULT '',
		domain TEXT DEFAULT '',
		hash INTEGER DEFAULT 0,
		has_hash INTEGER DEFAULT 0,
		group_idx INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_batch ON items(batch_id);
	CREATE INDEX IF NOT EXISTS idx_items_group ON items(batch_id, group_idx);
	`

	_, err = s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migrate runs pending schema migrations
func (s *Storage) migrate() error {
	currentVersion := s.getSchemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion || m.up == "" {
			continue
		}

		// Check if migration is needed (column might already exist)
		if m.version == 2 {
			if s.columnExists("items", "show_dups") {
				s.setSchemaVersion(m.version)
				continue
			}
		}

		if _, err := s.db.Exec(m.up); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}

		s.setSchemaVersion(m.version)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

// setSchemaVersion records a migration as applied
func (s *Storage) setSchemaVersion(version int) {
	s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version)
}

// columnExists checks if a column exists in a table
func (s *Storage) columnExists(table, column string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveBatch stores one clustering result and returns its batch ID.
// Every item row records the index of its group's primary, which is
// enough to rebuild the groups later in order.
func (s *Storage) SaveBatch(source string, items []*models.Item, groups []*models.DuplicateGroup, stats models.Stats) (string, error) {
	batchID := uuid.New().String()

	primaryOf := make(map[int]int, len(items))
	showDups := make(map[int]bool, len(groups))
	for _, g := range groups {
		primaryOf[g.Primary.Index] = g.Primary.Index
		showDups[g.Primary.Index] = g.ShowDuplicates
		for _, d := range g.Duplicates {
			primaryOf[d.Index] = g.Primary.Index
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO batches (id, source, total_items, num_with_dups, total_dups)
		VALUES (?, ?, ?, ?, ?)
	`, batchID, source, len(items), stats.NumWithDups, stats.TotalDups)
	if err != nil {
		return "", fmt.Errorf("failed to insert batch: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO items (batch_id, idx, handle, url, domain, hash, has_hash, group_idx, show_dups)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if item == nil {
			continue
		}
		groupIdx, ok := primaryOf[item.Index]
		if !ok {
			groupIdx = item.Index
		}
		hasHashInt := 0
		if item.HasHash {
			hasHashInt = 1
		}
		showInt := 0
		if item.Index == groupIdx && showDups[groupIdx] {
			showInt = 1
		}
		// Cast uint64 to int64 for SQLite compatibility
		_, err := stmt.Exec(batchID, item.Index, item.Handle, item.URL, item.Domain,
			int64(item.Hash), hasHashInt, groupIdx, showInt)
		if err != nil {
			return "", fmt.Errorf("failed to insert item %s: %w", item.Handle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

// LatestBatchID returns the ID of the most recent batch.
func (s *Storage) LatestBatchID() (string, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT id FROM batches ORDER BY created_at DESC, rowid DESC LIMIT 1
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no batches stored")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query batches: %w", err)
	}
	return id, nil
}

// Batches returns headers of all stored batches, newest first.
func (s *Storage) Batches() ([]*models.BatchResult, error) {
	rows, err := s.db.Query(`
		SELECT id, source, total_items, num_with_dups, total_dups
		FROM batches ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []*models.BatchResult
	for rows.Next() {
		b := &models.BatchResult{}
		if err := rows.Scan(&b.BatchID, &b.Source, &b.TotalItems,
			&b.Stats.NumWithDups, &b.Stats.TotalDups); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Groups rebuilds the surviving groups of a batch, ordered by primary
// index, duplicates ascending.
func (s *Storage) Groups(batchID string) ([]*models.DuplicateGroup, error) {
	rows, err := s.db.Query(`
		SELECT idx, handle, url, domain, hash, has_hash, group_idx, show_dups
		FROM items WHERE batch_id = ? ORDER BY idx
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	byPrimary := make(map[int]*models.DuplicateGroup)
	var order []int
	for rows.Next() {
		item := &models.Item{}
		var hashInt int64
		var hasHashInt, showInt, groupIdx int
		err := rows.Scan(&item.Index, &item.Handle, &item.URL, &item.Domain,
			&hashInt, &hasHashInt, &groupIdx, &showInt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		item.Hash = uint64(hashInt)
		item.HasHash = hasHashInt == 1

		g, ok := byPrimary[groupIdx]
		if !ok {
			g = &models.DuplicateGroup{}
			byPrimary[groupIdx] = g
			order = append(order, groupIdx)
		}
		if item.Index == groupIdx {
			g.Primary = item
			g.ShowDuplicates = showInt == 1
		} else {
			g.Duplicates = append(g.Duplicates, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Ints(order)
	groups := make([]*models.DuplicateGroup, 0, len(order))
	for _, idx := range order {
		groups = append(groups, byPrimary[idx])
	}
	return groups, nil
}

// Batch returns a full batch: header plus rebuilt groups.
func (s *Storage) Batch(batchID string) (*models.BatchResult, error) {
	b := &models.BatchResult{}
	err := s.db.QueryRow(`
		SELECT id, source, total_items, num_with_dups, total_dups
		FROM batches WHERE id = ?
	`, batchID).Scan(&b.BatchID, &b.Source, &b.TotalItems,
		&b.Stats.NumWithDups, &b.Stats.TotalDups)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}

	groups, err := s.Groups(batchID)
	if err != nil {
		return nil, err
	}
	b.Groups = groups
	return b, nil
}
