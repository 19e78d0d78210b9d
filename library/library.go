package library

import (
	"cmp"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

type addBookInput struct {
	Title  string `validate:"required"`
	Year   int
	Author string `validate:"required"`
}

type lendInput struct {
	UserName string `validate:"required"`
}

// Library owns every copy in the catalog and hands out their ids.
// It does no locking; LibraryManager serializes access for shared use.
type Library struct {
	copies map[int64]BookCopy
	nextID int64
}

func NewLibrary() *Library {
	return &Library{copies: make(map[int64]BookCopy)}
}

func checkInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.Wrap(ErrInvalidArgument, err.Error())
	}
	return nil
}

// AddBook stores a new, unlent copy and returns its id. Ids start at 0 and
// are never handed out twice.
func (l *Library) AddBook(title string, year int, author string) (int64, error) {
	if err := checkInput(addBookInput{Title: title, Year: year, Author: author}); err != nil {
		return 0, err
	}

	id := l.nextID
	l.nextID++
	l.copies[id] = newBookCopy(Book{Title: title, Year: year, Author: author}, id)
	return id, nil
}

func (l *Library) RemoveBookByID(id int64) error {
	c, ok := l.copies[id]
	if !ok {
		return errors.Wrapf(ErrBookNotFound, "cannot remove book copy %d", id)
	}
	if c.IsLent() {
		return errors.Wrapf(ErrBookLent, "cannot remove book copy %d", id)
	}
	delete(l.copies, id)
	return nil
}

// LendForUser marks the copy as held by userName. Lending a copy that is
// already lent fails, even to the same user.
func (l *Library) LendForUser(id int64, userName string) error {
	if err := checkInput(lendInput{UserName: userName}); err != nil {
		return err
	}

	c, ok := l.copies[id]
	if !ok {
		return errors.Wrapf(ErrBookNotFound, "cannot lend book copy %d", id)
	}
	if c.IsLent() {
		return errors.Wrapf(ErrBookLent, "cannot lend book copy %d", id)
	}
	l.copies[id] = c.lentTo(userName)
	return nil
}

func (l *Library) GetBookCopyInfo(id int64) (BookCopy, error) {
	c, ok := l.copies[id]
	if !ok {
		return BookCopy{}, errors.Wrapf(ErrBookNotFound, "cannot display book copy %d", id)
	}
	return c, nil
}

// ListBookAvailability counts free and lent copies per Book. Books without
// copies do not appear.
func (l *Library) ListBookAvailability() map[Book]BookAvailability {
	result := make(map[Book]BookAvailability)
	for _, c := range l.copies {
		a := result[c.book]
		if c.IsLent() {
			a.numLent++
		} else {
			a.numAvailable++
		}
		result[c.book] = a
	}
	return result
}

// Search returns the copies whose Book matches predicate, ordered by id.
func (l *Library) Search(predicate func(Book) bool) ([]BookCopy, error) {
	if predicate == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "search predicate is nil")
	}

	var found []BookCopy
	for _, c := range l.copies {
		if predicate(c.book) {
			found = append(found, c)
		}
	}
	sortByID(found)
	return found, nil
}

// Copies returns every copy ordered by id.
func (l *Library) Copies() []BookCopy {
	all := make([]BookCopy, 0, len(l.copies))
	for _, c := range l.copies {
		all = append(all, c)
	}
	sortByID(all)
	return all
}

func (l *Library) Len() int { return len(l.copies) }

func sortByID(copies []BookCopy) {
	slices.SortFunc(copies, func(a, b BookCopy) int { return cmp.Compare(a.id, b.id) })
}
