package main

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactStore_Page(t *testing.T) {
	t.Parallel()

	store := newContactStore()
	for i := range 45 {
		store.add(fmt.Sprintf("contact %d", i), fmt.Sprintf("c%d@example.com", i))
	}

	tests := []struct {
		name     string
		n        int
		first    string
		items    int
		lastPage bool
	}{
		{name: "first page", n: 0, first: "contact 44", items: pageSize},
		{name: "last page", n: 2, first: "contact 4", items: 5, lastPage: true},
		{name: "past the end", n: 3, items: 0, lastPage: true},
		{name: "overflowing page number", n: math.MaxInt, items: 0, lastPage: true},
		{name: "negative page number", n: -1, first: "contact 44", items: pageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := store.page(tt.n)

			assert.Len(t, page.Content(), tt.items)
			assert.Equal(t, 3, page.TotalPages())
			assert.Equal(t, tt.lastPage, page.IsLast())

			if tt.first != "" {
				assert.Equal(t, tt.first, page.Content()[0].Name)
			}
		})
	}
}
