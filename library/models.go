package library

import (
	"fmt"
	"time"
)

// Book is the bibliographic record shared by every copy with the same
// title, year and author. It is a comparable value and is used directly as a
// map key when grouping copies.
type Book struct {
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Author string `json:"author"`
}

func (b Book) String() string {
	return fmt.Sprintf("%s (%d) by %s", b.Title, b.Year, b.Author)
}

// BookCopy is one physical, individually lendable copy of a Book.
// Copies are handed out by value; the stored record only changes through
// Library.LendForUser.
type BookCopy struct {
	book        Book
	id          int64
	lendingUser *string
}

func newBookCopy(book Book, id int64) BookCopy {
	return BookCopy{book: book, id: id}
}

func (c BookCopy) Book() Book { return c.book }
func (c BookCopy) ID() int64  { return c.id }

// LendingUser reports who holds the copy; ok is false when it is not lent.
func (c BookCopy) LendingUser() (user string, ok bool) {
	if c.lendingUser == nil {
		return "", false
	}
	return *c.lendingUser, true
}

func (c BookCopy) IsLent() bool { return c.lendingUser != nil }

// lentTo returns a copy of c held by user.
func (c BookCopy) lentTo(user string) BookCopy {
	c.lendingUser = &user
	return c
}

// BookAvailability holds the number of free and lent copies of a Book.
type BookAvailability struct {
	numAvailable int64
	numLent      int64
}

func NewBookAvailability(numAvailable, numLent int64) BookAvailability {
	return BookAvailability{numAvailable: numAvailable, numLent: numLent}
}

func (a BookAvailability) NumAvailable() int64 { return a.numAvailable }
func (a BookAvailability) NumLent() int64      { return a.numLent }
func (a BookAvailability) Total() int64        { return a.numAvailable + a.numLent }

// TitleAvailability is one row of an availability report.
type TitleAvailability struct {
	Book
	Available int64 `json:"available"`
	Lent      int64 `json:"lent"`
}

// Snapshot is a consistent view of the catalog at a point in time.
type Snapshot struct {
	TakenAt      time.Time
	Copies       []BookCopy
	Availability []TitleAvailability
}
