package lexicon

import (
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists a lexicon in a SQLite database. Candidate order is kept in
// the position column.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (and if needed creates) the SQLite lexicon at path
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		word        TEXT    NOT NULL,
		position    INTEGER NOT NULL,
		target      TEXT    NOT NULL,
		probability REAL    NOT NULL,
		PRIMARY KEY (word, position)
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create lexicon tables: %w", err)
	}
	return nil
}

// Load reads every stored entry into a new lexicon
func (s *Store) Load() (*Lexicon, error) {
	rows, err := s.db.Query(`SELECT word, target, probability FROM candidates ORDER BY word, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query lexicon: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]Candidate)
	for rows.Next() {
		var word string
		var c Candidate
		if err := rows.Scan(&word, &c.Target, &c.Probability); err != nil {
			return nil, fmt.Errorf("failed to scan lexicon row: %w", err)
		}
		entries[word] = append(entries[word], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lexicon rows: %w", err)
	}

	return New(entries)
}

// Put replaces the stored entry for word
func (s *Store) Put(word string, candidates []Candidate) error {
	if err := Validate(word, candidates); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := putTx(tx, word, candidates); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lexicon entry: %w", err)
	}
	return nil
}

// Save replaces the whole store content with the entries of l
func (s *Store) Save(l *Lexicon) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM candidates`); err != nil {
		return fmt.Errorf("failed to clear lexicon: %w", err)
	}

	entries := l.Entries()
	words := make([]string, 0, len(entries))
	for word := range entries {
		words = append(words, word)
	}
	sort.Strings(words)

	for _, word := range words {
		if err := putTx(tx, word, entries[word]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lexicon: %w", err)
	}
	return nil
}

func putTx(tx *sql.Tx, word string, candidates []Candidate) error {
	if _, err := tx.Exec(`DELETE FROM candidates WHERE word = ?`, word); err != nil {
		return fmt.Errorf("failed to delete entry %q: %w", word, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO candidates (word, position, target, probability) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range candidates {
		if _, err := stmt.Exec(word, i, c.Target, c.Probability); err != nil {
			return fmt.Errorf("failed to insert candidate %q for %q: %w", c.Target, word, err)
		}
	}
	return nil
}
