package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBookIDsIncrease(t *testing.T) {
	lib := NewLibrary()

	var last int64 = -1
	for i := 0; i < 50; i++ {
		id, err := lib.AddBook("Dune", 1965, "Frank Herbert")
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}
	assert.Equal(t, int64(49), last)
}

func TestAddBookIDsNotReusedAfterRemove(t *testing.T) {
	lib := NewLibrary()

	first, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)
	require.NoError(t, lib.RemoveBookByID(first))

	second, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, first+1, second)
}

func TestAddBookValidation(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		year   int
		author string
		ok     bool
	}{
		{name: "ok", title: "1984", year: 1949, author: "George Orwell", ok: true},
		{name: "negative year is fine", title: "The Odyssey", year: -700, author: "Homer", ok: true},
		{name: "empty title", title: "", year: 1949, author: "George Orwell"},
		{name: "empty author", title: "1984", year: 1949, author: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := NewLibrary()
			_, err := lib.AddBook(tt.title, tt.year, tt.author)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, 1, lib.Len())
				return
			}
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, 0, lib.Len())
		})
	}
}

func TestRemoveBookByID(t *testing.T) {
	lib := NewLibrary()
	id, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)

	require.NoError(t, lib.RemoveBookByID(id))

	_, err = lib.GetBookCopyInfo(id)
	require.ErrorIs(t, err, ErrBookNotFound)
	require.ErrorIs(t, lib.RemoveBookByID(id), ErrBookNotFound)
}

func TestRemoveLentBookFails(t *testing.T) {
	lib := NewLibrary()
	id, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)
	require.NoError(t, lib.LendForUser(id, "alice"))

	require.ErrorIs(t, lib.RemoveBookByID(id), ErrBookLent)

	c, err := lib.GetBookCopyInfo(id)
	require.NoError(t, err)
	assert.True(t, c.IsLent())
	user, ok := c.LendingUser()
	assert.True(t, ok)
	assert.Equal(t, "alice", user)
}

func TestLendForUser(t *testing.T) {
	lib := NewLibrary()
	id, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)

	before, err := lib.GetBookCopyInfo(id)
	require.NoError(t, err)
	assert.False(t, before.IsLent())

	require.NoError(t, lib.LendForUser(id, "alice"))
	require.ErrorIs(t, lib.LendForUser(id, "alice"), ErrBookLent)
	require.ErrorIs(t, lib.LendForUser(id, "bob"), ErrBookLent)

	after, err := lib.GetBookCopyInfo(id)
	require.NoError(t, err)
	user, ok := after.LendingUser()
	require.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, before.Book(), after.Book())
	assert.Equal(t, before.ID(), after.ID())

	// the copy handed out earlier is a value and does not change
	assert.False(t, before.IsLent())
}

func TestLendForUserEmptyName(t *testing.T) {
	lib := NewLibrary()
	id, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)

	require.ErrorIs(t, lib.LendForUser(id, ""), ErrInvalidArgument)
	// user name is checked before the id
	require.ErrorIs(t, lib.LendForUser(42, ""), ErrInvalidArgument)

	c, err := lib.GetBookCopyInfo(id)
	require.NoError(t, err)
	assert.False(t, c.IsLent())
}

func TestUnknownIDNotFound(t *testing.T) {
	lib := NewLibrary()
	_, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)

	const never int64 = 7
	require.ErrorIs(t, lib.LendForUser(never, "alice"), ErrBookNotFound)
	require.ErrorIs(t, lib.RemoveBookByID(never), ErrBookNotFound)
	_, err = lib.GetBookCopyInfo(never)
	require.ErrorIs(t, err, ErrBookNotFound)
	_, err = lib.GetBookCopyInfo(-1)
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestListBookAvailability(t *testing.T) {
	lib := NewLibrary()
	a1, err := lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)
	_, err = lib.AddBook("Dune", 1965, "Frank Herbert")
	require.NoError(t, err)
	removed, err := lib.AddBook("1984", 1949, "George Orwell")
	require.NoError(t, err)
	_, err = lib.AddBook("Dune", 1984, "Frank Herbert")
	require.NoError(t, err)

	require.NoError(t, lib.LendForUser(a1, "alice"))
	require.NoError(t, lib.RemoveBookByID(removed))

	got := lib.ListBookAvailability()
	require.Len(t, got, 2)

	dune := got[Book{Title: "Dune", Year: 1965, Author: "Frank Herbert"}]
	assert.Equal(t, int64(1), dune.NumAvailable())
	assert.Equal(t, int64(1), dune.NumLent())
	assert.Equal(t, int64(2), dune.Total())

	remake := got[Book{Title: "Dune", Year: 1984, Author: "Frank Herbert"}]
	assert.Equal(t, NewBookAvailability(1, 0), remake)

	_, ok := got[Book{Title: "1984", Year: 1949, Author: "George Orwell"}]
	assert.False(t, ok, "books without copies must not be listed")
}

func TestListBookAvailabilityEmpty(t *testing.T) {
	assert.Empty(t, NewLibrary().ListBookAvailability())
}

func TestSearch(t *testing.T) {
	lib := NewLibrary()
	_, err := lib.AddBook("Dune", 1965, "Herbert")
	require.NoError(t, err)
	orwell, err := lib.AddBook("1984", 1949, "Orwell")
	require.NoError(t, err)

	found, err := lib.Search(func(b Book) bool { return b.Year < 1950 })
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, orwell, found[0].ID())
	assert.Equal(t, "1984", found[0].Book().Title)

	none, err := lib.Search(func(Book) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchOrderedByID(t *testing.T) {
	lib := NewLibrary()
	for i := 0; i < 20; i++ {
		_, err := lib.AddBook("Dune", 1965, "Herbert")
		require.NoError(t, err)
	}

	found, err := lib.Search(func(Book) bool { return true })
	require.NoError(t, err)
	require.Len(t, found, 20)
	for i, c := range found {
		assert.Equal(t, int64(i), c.ID())
	}
}

func TestSearchNilPredicate(t *testing.T) {
	_, err := NewLibrary().Search(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBookStructuralEquality(t *testing.T) {
	a := Book{Title: "Dune", Year: 1965, Author: "Herbert"}
	b := Book{Title: "Dune", Year: 1965, Author: "Herbert"}
	c := Book{Title: "Dune", Year: 1966, Author: "Herbert"}

	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.False(t, a == c)

	m := map[Book]int{a: 1}
	m[b]++
	assert.Equal(t, 2, m[a])
	assert.Len(t, m, 1)

	lib := NewLibrary()
	id, err := lib.AddBook("Dune", 1965, "Herbert")
	require.NoError(t, err)
	copyInfo, err := lib.GetBookCopyInfo(id)
	require.NoError(t, err)
	assert.Equal(t, a, copyInfo.Book())
	assert.Equal(t, "Dune (1965) by Herbert", a.String())
}

func TestCopiesOrderedByID(t *testing.T) {
	lib := NewLibrary()
	for _, title := range []string{"C", "A", "B"} {
		_, err := lib.AddBook(title, 2000, "Anon")
		require.NoError(t, err)
	}
	require.NoError(t, lib.RemoveBookByID(1))

	copies := lib.Copies()
	require.Len(t, copies, 2)
	assert.Equal(t, int64(0), copies[0].ID())
	assert.Equal(t, int64(2), copies[1].ID())
}
