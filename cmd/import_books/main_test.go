package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library-catalog/library"
)

func TestReadSeed(t *testing.T) {
	in := `# title,year,author,lent_to
Dune,1965,Frank Herbert
Dune, 1965, Frank Herbert, alice

"The Lord of the Rings, Part One",1954,J.R.R. Tolkien
`
	rows, err := readSeed(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, seedRow{Title: "Dune", Year: 1965, Author: "Frank Herbert"}, rows[0])
	assert.Equal(t, "alice", rows[1].LentTo)
	assert.Equal(t, "The Lord of the Rings, Part One", rows[2].Title)
}

func TestReadSeedErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "too few fields", in: "Dune,1965\n"},
		{name: "bad year", in: "Dune,sixty-five,Frank Herbert\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readSeed(strings.NewReader(tt.in))
			require.Error(t, err)
		})
	}
}

func TestImportRows(t *testing.T) {
	mgr := library.NewLibraryManager(nil, zap.NewNop())
	rows := []seedRow{
		{Title: "Dune", Year: 1965, Author: "Frank Herbert"},
		{Title: "Dune", Year: 1965, Author: "Frank Herbert", LentTo: "alice"},
		{Title: "", Year: 2000, Author: "Nobody"},
	}

	ok, failed := importRows(mgr, rows, zap.NewNop())
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)

	report := mgr.AvailabilityReport()
	require.Len(t, report, 1)
	assert.Equal(t, int64(1), report[0].Available)
	assert.Equal(t, int64(1), report[0].Lent)
}
