// Package store persists artists, tracks, credits, certifications and
// per-field provenance to a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"trackdex/internal/music"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed canonical record store.
type Store struct {
	db *sql.DB
}

// Open creates a connection and runs the schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

// Close ensures the DB connection is closed gracefully.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the track, its owning artist, and all dependent rows in
// one transaction. Credits, certifications and provenance are rewritten
// from the in-memory track, which is canonical after an enrichment pass.
func (s *Store) Save(ctx context.Context, t *music.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	artistID, err := upsertArtist(ctx, tx, t.Artist)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracks (artist_id, title, album, bpm, musical_key, duration_sec, genre, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(artist_id, title) DO UPDATE SET
			album=excluded.album,
			bpm=excluded.bpm,
			musical_key=excluded.musical_key,
			duration_sec=excluded.duration_sec,
			genre=excluded.genre,
			updated_at=excluded.updated_at;
	`, artistID, t.Title, t.Album, t.BPM, t.MusicalKey, t.DurationSec, t.Genre, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save track %q: %w", t.Title, err)
	}

	trackID := t.ID
	if trackID == 0 {
		row := tx.QueryRowContext(ctx,
			"SELECT id FROM tracks WHERE artist_id = ? AND title = ?", artistID, t.Title)
		if err := row.Scan(&trackID); err != nil {
			return fmt.Errorf("failed to resolve track id: %w", err)
		}
	}

	for _, table := range []string{"credits", "provenance", "certifications"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE track_id = ?", table), trackID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	stmtCredit, err := tx.PrepareContext(ctx, `
		INSERT INTO credits (track_id, name, role, role_detail, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(track_id, name, role, role_detail) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmtCredit.Close()

	for _, c := range t.Credits {
		if _, err := stmtCredit.ExecContext(ctx, trackID, c.Name, string(c.Role), c.RoleDetail, c.Source); err != nil {
			return fmt.Errorf("failed to save credit %s: %w", c.Name, err)
		}
	}

	stmtProv, err := tx.PrepareContext(ctx, `
		INSERT INTO provenance (track_id, field, source, confidence, written_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmtProv.Close()

	for field, prov := range t.Provenance {
		if _, err := stmtProv.ExecContext(ctx, trackID, string(field), prov.Source, prov.Confidence, prov.At); err != nil {
			return fmt.Errorf("failed to save provenance for %s: %w", field, err)
		}
	}

	stmtCert, err := tx.PrepareContext(ctx, `
		INSERT INTO certifications (track_id, level, category, body, publisher, country, certified_at, released_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id, level, category, body) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmtCert.Close()

	for _, c := range t.Certifications {
		if _, err := stmtCert.ExecContext(ctx, trackID, string(c.Level), string(c.Category),
			c.Body, c.Publisher, c.Country, c.CertifiedAt, c.ReleasedAt); err != nil {
			return fmt.Errorf("failed to save certification %s: %w", c.Level, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	t.ID = trackID
	if t.Artist != nil {
		t.Artist.ID = artistID
	}
	return nil
}

func upsertArtist(ctx context.Context, tx *sql.Tx, a *music.Artist) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("track has no artist")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO artists (name, spotify_id, deezer_id) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			spotify_id=excluded.spotify_id,
			deezer_id=excluded.deezer_id;
	`, a.Name, a.SpotifyID, a.DeezerID); err != nil {
		return 0, fmt.Errorf("failed to save artist %q: %w", a.Name, err)
	}

	var id int64
	row := tx.QueryRowContext(ctx, "SELECT id FROM artists WHERE name = ?", a.Name)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve artist id: %w", err)
	}
	return id, nil
}

// LoadByArtist returns the artist's tracks with credits, certifications
// and provenance attached. Returns ErrNotFound for an unknown artist.
func (s *Store) LoadByArtist(ctx context.Context, name string) ([]*music.Track, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, spotify_id, deezer_id FROM artists WHERE name = ?", name)

	artist := &music.Artist{}
	if err := row.Scan(&artist.ID, &artist.Name, &artist.SpotifyID, &artist.DeezerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load artist: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, IFNULL(album, ''), IFNULL(bpm, 0), IFNULL(musical_key, ''),
			IFNULL(duration_sec, 0), IFNULL(genre, ''), created_at, updated_at
		FROM tracks WHERE artist_id = ? ORDER BY title ASC
	`, artist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*music.Track
	for rows.Next() {
		t := &music.Track{Provenance: make(map[music.FieldKey]music.Provenance)}
		if err := rows.Scan(&t.ID, &t.Title, &t.Album, &t.BPM, &t.MusicalKey,
			&t.DurationSec, &t.Genre, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		artist.AddTrack(t)
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}

	for _, t := range tracks {
		if err := s.loadDetails(ctx, t); err != nil {
			return nil, err
		}
	}
	return tracks, nil
}

func (s *Store) loadDetails(ctx context.Context, t *music.Track) error {
	creditRows, err := s.db.QueryContext(ctx, `
		SELECT name, role, IFNULL(role_detail, ''), IFNULL(source, '')
		FROM credits WHERE track_id = ?
	`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load credits: %w", err)
	}
	defer creditRows.Close()

	for creditRows.Next() {
		var c music.Credit
		var role string
		if err := creditRows.Scan(&c.Name, &role, &c.RoleDetail, &c.Source); err != nil {
			return fmt.Errorf("failed to scan credit: %w", err)
		}
		c.Role = music.Role(role)
		t.Credits = append(t.Credits, c)
	}
	if err := creditRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate credits: %w", err)
	}

	provRows, err := s.db.QueryContext(ctx, `
		SELECT field, source, confidence, written_at FROM provenance WHERE track_id = ?
	`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load provenance: %w", err)
	}
	defer provRows.Close()

	for provRows.Next() {
		var field string
		var prov music.Provenance
		if err := provRows.Scan(&field, &prov.Source, &prov.Confidence, &prov.At); err != nil {
			return fmt.Errorf("failed to scan provenance: %w", err)
		}
		t.Provenance[music.FieldKey(field)] = prov
	}
	if err := provRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate provenance: %w", err)
	}

	certRows, err := s.db.QueryContext(ctx, `
		SELECT level, category, IFNULL(body, ''), IFNULL(publisher, ''), IFNULL(country, ''),
			certified_at, released_at
		FROM certifications WHERE track_id = ?
	`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load certifications: %w", err)
	}
	defer certRows.Close()

	for certRows.Next() {
		var c music.Certification
		var level, category string
		if err := certRows.Scan(&level, &category, &c.Body, &c.Publisher, &c.Country,
			&c.CertifiedAt, &c.ReleasedAt); err != nil {
			return fmt.Errorf("failed to scan certification: %w", err)
		}
		c.Level = music.CertLevel(level)
		c.Category = music.CertCategory(category)
		t.Certifications = append(t.Certifications, c)
	}
	return certRows.Err()
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS artists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		spotify_id TEXT,
		deezer_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		album TEXT,
		bpm INTEGER,
		musical_key TEXT,
		duration_sec INTEGER,
		genre TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(artist_id, title),
		FOREIGN KEY(artist_id) REFERENCES artists(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS credits (
		track_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		role_detail TEXT NOT NULL DEFAULT '',
		source TEXT,
		PRIMARY KEY (track_id, name, role, role_detail),
		FOREIGN KEY(track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS provenance (
		track_id INTEGER NOT NULL,
		field TEXT NOT NULL,
		source TEXT NOT NULL,
		confidence REAL NOT NULL,
		written_at DATETIME,
		PRIMARY KEY (track_id, field),
		FOREIGN KEY(track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS certifications (
		track_id INTEGER NOT NULL,
		level TEXT NOT NULL,
		category TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		publisher TEXT,
		country TEXT,
		certified_at DATETIME,
		released_at DATETIME,
		PRIMARY KEY (track_id, level, category, body),
		FOREIGN KEY(track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(query)
	return err
}
