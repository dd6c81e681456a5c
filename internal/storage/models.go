// Package storage provides database models and repositories for the FAQ engine.
package storage

import "time"

// FAQEntry is an authored question/answer record with its keywords and
// category, as read from the collaborator-owned store. Snapshots are
// immutable for the duration of a request.
type FAQEntry struct {
	ID          int64
	Title       string
	Body        string
	Keywords    []string
	Category    string
	CategoryPDF string
	OfficerID   *int64
	ReviewedAt  *time.Time
}

// NegativeKeyword is a negation marker with its score modifier.
type NegativeKeyword struct {
	Word           string
	WeightModifier float64
	Active         bool
}

// SynonymMapping rewrites an input word to a canonical keyword.
type SynonymMapping struct {
	InputWord string
	Keyword   string
}

// SemanticPair holds a graded similarity between two words.
type SemanticPair struct {
	WordA      string
	WordB      string
	Similarity float64
}

// OfficerContact is a human contact for fallback responses.
type OfficerContact struct {
	Organization string
	Officer      string
	Phone        string
}

// CategoryContact links a category to a contact string, used when
// attaching contacts to multi-result responses.
type CategoryContact struct {
	Organization string
	Category     string
	Contact      string
}
