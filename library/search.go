package library

import "strings"

// Predicate selects books in Library.Search.
type Predicate func(Book) bool

func TitleContains(s string) Predicate {
	s = strings.ToLower(s)
	return func(b Book) bool { return strings.Contains(strings.ToLower(b.Title), s) }
}

func AuthorContains(s string) Predicate {
	s = strings.ToLower(s)
	return func(b Book) bool { return strings.Contains(strings.ToLower(b.Author), s) }
}

// PublishedBefore matches books with Year < year.
func PublishedBefore(year int) Predicate {
	return func(b Book) bool { return b.Year < year }
}

// PublishedFrom matches books with Year >= year.
func PublishedFrom(year int) Predicate {
	return func(b Book) bool { return b.Year >= year }
}

// MatchAll combines predicates with a logical AND. With no predicates it
// matches every book.
func MatchAll(preds ...Predicate) Predicate {
	return func(b Book) bool {
		for _, p := range preds {
			if !p(b) {
				return false
			}
		}
		return true
	}
}
