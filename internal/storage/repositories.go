package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// FAQRepository reads FAQ entries and their keywords.
type FAQRepository struct {
	db DB
}

// NewFAQRepository creates a new FAQ repository.
func NewFAQRepository(db DB) *FAQRepository {
	return &FAQRepository{db: db}
}

// ListWithKeywords returns every FAQ entry with its keyword list and
// category attached. This is the candidate snapshot scored per request.
func (r *FAQRepository) ListWithKeywords(ctx context.Context) ([]*FAQEntry, error) {
	query := `
		SELECT e.id, e.title, e.body, e.officer_id, e.reviewed_at,
			COALESCE(c.name, ''), COALESCE(c.pdf_path, '')
		FROM faq_entries e
		LEFT JOIN categories c ON e.category_id = c.id
		ORDER BY e.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list faq entries: %w", err)
	}
	defer rows.Close()

	var entries []*FAQEntry
	byID := make(map[int64]*FAQEntry)
	for rows.Next() {
		entry := &FAQEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Body, &entry.OfficerID,
			&entry.ReviewedAt, &entry.Category, &entry.CategoryPDF,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		byID[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	kwQuery := `
		SELECT ek.entry_id, k.text
		FROM keywords k
		INNER JOIN entry_keywords ek ON k.id = ek.keyword_id
		ORDER BY ek.entry_id
	`
	kwRows, err := r.db.QueryContext(ctx, kwQuery)
	if err != nil {
		return nil, fmt.Errorf("list entry keywords: %w", err)
	}
	defer kwRows.Close()

	for kwRows.Next() {
		var entryID int64
		var text string
		if err := kwRows.Scan(&entryID, &text); err != nil {
			return nil, err
		}
		if entry, ok := byID[entryID]; ok {
			entry.Keywords = append(entry.Keywords, text)
		}
	}
	return entries, kwRows.Err()
}

// GetByID retrieves a single FAQ entry with keywords.
func (r *FAQRepository) GetByID(ctx context.Context, id int64) (*FAQEntry, error) {
	query := `
		SELECT e.id, e.title, e.body, e.officer_id, e.reviewed_at,
			COALESCE(c.name, ''), COALESCE(c.pdf_path, '')
		FROM faq_entries e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.id = $1
	`
	entry := &FAQEntry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.Title, &entry.Body, &entry.OfficerID,
		&entry.ReviewedAt, &entry.Category, &entry.CategoryPDF,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	kwQuery := `
		SELECT k.text
		FROM keywords k
		INNER JOIN entry_keywords ek ON k.id = ek.keyword_id
		WHERE ek.entry_id = $1
	`
	rows, err := r.db.QueryContext(ctx, kwQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		entry.Keywords = append(entry.Keywords, text)
	}
	return entry, rows.Err()
}

// ListKeywords returns every distinct registered keyword, lowercased.
// Used for the stopword auto-whitelist and the strict no-match check.
func (r *FAQRepository) ListKeywords(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT text FROM keywords WHERE TRIM(text) <> ''`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		keywords = append(keywords, strings.ToLower(strings.TrimSpace(text)))
	}
	return keywords, rows.Err()
}

// StopwordRepository reads the stopword store.
type StopwordRepository struct {
	db DB
}

// NewStopwordRepository creates a new stopword repository.
func NewStopwordRepository(db DB) *StopwordRepository {
	return &StopwordRepository{db: db}
}

// List returns every stopword, lowercased.
func (r *StopwordRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT text FROM stopwords`)
	if err != nil {
		return nil, fmt.Errorf("list stopwords: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		words = append(words, strings.ToLower(text))
	}
	return words, rows.Err()
}

// LastUpdated returns the most recent modification timestamp of the
// stopword store, used for early cache invalidation. The column is read
// directly so the SQLite driver keeps its timestamp type information.
func (r *StopwordRepository) LastUpdated(ctx context.Context) (time.Time, error) {
	query := `
		SELECT updated_at FROM stopwords
		WHERE updated_at IS NOT NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var updated sql.NullTime
	err := r.db.QueryRowContext(ctx, query).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stopwords last updated: %w", err)
	}
	if !updated.Valid {
		return time.Time{}, nil
	}
	return updated.Time, nil
}

// SynonymRepository reads active synonym mappings.
type SynonymRepository struct {
	db DB
}

// NewSynonymRepository creates a new synonym repository.
func NewSynonymRepository(db DB) *SynonymRepository {
	return &SynonymRepository{db: db}
}

// ListActive returns input word to canonical keyword, both lowercased.
func (r *SynonymRepository) ListActive(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT s.input_word, k.text
		FROM keyword_synonyms s
		JOIN keywords k ON s.keyword_id = k.id
		WHERE s.is_active = 1
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list synonyms: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var input, target string
		if err := rows.Scan(&input, &target); err != nil {
			return nil, err
		}
		input = strings.ToLower(strings.TrimSpace(input))
		target = strings.ToLower(strings.TrimSpace(target))
		if input != "" && target != "" {
			mapping[input] = target
		}
	}
	return mapping, rows.Err()
}

// NegativeKeywordRepository reads and seeds the negation dictionary.
type NegativeKeywordRepository struct {
	db DB
}

// NewNegativeKeywordRepository creates a new negative keyword repository.
func NewNegativeKeywordRepository(db DB) *NegativeKeywordRepository {
	return &NegativeKeywordRepository{db: db}
}

// ListActive returns active negation words with modifiers.
func (r *NegativeKeywordRepository) ListActive(ctx context.Context) ([]NegativeKeyword, error) {
	query := `SELECT word, weight_modifier FROM negative_keywords WHERE is_active = 1`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list negative keywords: %w", err)
	}
	defer rows.Close()

	var words []NegativeKeyword
	for rows.Next() {
		nk := NegativeKeyword{Active: true}
		if err := rows.Scan(&nk.Word, &nk.WeightModifier); err != nil {
			return nil, err
		}
		nk.Word = strings.ToLower(strings.TrimSpace(nk.Word))
		if nk.Word != "" {
			words = append(words, nk)
		}
	}
	return words, rows.Err()
}

// ListIgnored returns words the operator explicitly opted out of.
// These must never be re-seeded automatically.
func (r *NegativeKeywordRepository) ListIgnored(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT word FROM negative_keyword_ignores`)
	if err != nil {
		return nil, fmt.Errorf("list ignored negative keywords: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, err
		}
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" {
			words = append(words, word)
		}
	}
	return words, rows.Err()
}

// UpsertActive inserts a baseline negation word, reactivating it if present.
func (r *NegativeKeywordRepository) UpsertActive(ctx context.Context, word string, modifier float64) error {
	query := `
		INSERT INTO negative_keywords (word, weight_modifier, is_active)
		VALUES ($1, $2, 1)
		ON CONFLICT (word) DO UPDATE SET weight_modifier = $2, is_active = 1
	`
	_, err := r.db.ExecContext(ctx, query, word, modifier)
	if err != nil {
		return fmt.Errorf("upsert negative keyword %q: %w", word, err)
	}
	return nil
}

// SemanticPairRepository reads the graded word-similarity table.
type SemanticPairRepository struct {
	db DB
}

// NewSemanticPairRepository creates a new semantic pair repository.
func NewSemanticPairRepository(db DB) *SemanticPairRepository {
	return &SemanticPairRepository{db: db}
}

// Load returns the similarity table as word -> word -> similarity.
// An empty table is not an error; ranking degrades to lexical overlap.
func (r *SemanticPairRepository) Load(ctx context.Context) (map[string]map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT word_a, word_b, similarity FROM semantic_pairs`)
	if err != nil {
		return nil, fmt.Errorf("load semantic pairs: %w", err)
	}
	defer rows.Close()

	table := make(map[string]map[string]float64)
	for rows.Next() {
		var pair SemanticPair
		if err := rows.Scan(&pair.WordA, &pair.WordB, &pair.Similarity); err != nil {
			return nil, err
		}
		a := strings.ToLower(strings.TrimSpace(pair.WordA))
		b := strings.ToLower(strings.TrimSpace(pair.WordB))
		if a == "" || b == "" {
			continue
		}
		if table[a] == nil {
			table[a] = make(map[string]float64)
		}
		table[a][b] = pair.Similarity
	}
	return table, rows.Err()
}

// ContactRepository reads officer and organization contacts.
type ContactRepository struct {
	db DB
}

// NewContactRepository creates a new contact repository.
func NewContactRepository(db DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// ActiveOfficerContacts returns officers with a non-empty phone, ordered
// by organization name.
func (r *ContactRepository) ActiveOfficerContacts(ctx context.Context, limit int) ([]OfficerContact, error) {
	query := `
		SELECT DISTINCT COALESCE(org.name, ''), o.name, o.phone
		FROM officers o
		LEFT JOIN organizations org ON o.org_id = org.id
		WHERE o.phone IS NOT NULL AND TRIM(o.phone) <> '' AND o.is_active = 1
		ORDER BY COALESCE(org.name, '')
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list officer contacts: %w", err)
	}
	defer rows.Close()

	var contacts []OfficerContact
	for rows.Next() {
		var c OfficerContact
		if err := rows.Scan(&c.Organization, &c.Officer, &c.Phone); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Organizations returns the organization directory names.
func (r *ContactRepository) Organizations(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	return names, rows.Err()
}

// ContactsForEntries returns category/officer contacts relevant to the
// given FAQ entries, attached to multi-result responses.
func (r *ContactRepository) ContactsForEntries(ctx context.Context, entryIDs []int64) ([]CategoryContact, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(entryIDs))
	args := make([]interface{}, len(entryIDs))
	for i, id := range entryIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT COALESCE(org.name, ''), COALESCE(c.name, ''), COALESCE(cc.contact, '')
		FROM faq_entries e
		LEFT JOIN officers o ON e.officer_id = o.id
		LEFT JOIN organizations org ON o.org_id = org.id
		LEFT JOIN categories c ON e.category_id = c.id
		LEFT JOIN category_contacts cc ON (c.id = cc.category_id OR c.parent_id = cc.category_id)
		WHERE e.id IN (%s) AND cc.contact IS NOT NULL AND TRIM(cc.contact) <> ''
		ORDER BY COALESCE(org.name, ''), COALESCE(c.name, '')
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("contacts for entries: %w", err)
	}
	defer rows.Close()

	var contacts []CategoryContact
	for rows.Next() {
		var c CategoryContact
		if err := rows.Scan(&c.Organization, &c.Category, &c.Contact); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
