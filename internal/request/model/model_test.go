package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	tests := map[string]Priority{
		"low":    PriorityLow,
		"Medium": PriorityMedium,
		"HIGH":   PriorityHigh,
		"Baixa":  PriorityLow,
		"Média":  PriorityMedium,
		" alta ": PriorityHigh,
	}
	for input, want := range tests {
		got, ok := ParsePriority(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := ParsePriority("urgent")
	assert.False(t, ok)
}

func TestPriorityOrdinals(t *testing.T) {
	for i, want := range Priorities() {
		got, ok := PriorityFromOrdinal(i)
		assert.True(t, ok)
		assert.Equal(t, want, got)
		rank, _ := want.Rank()
		assert.Equal(t, i, rank)
	}
	_, ok := PriorityFromOrdinal(3)
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	got, ok := ParseStatus("pending")
	assert.True(t, ok)
	assert.Equal(t, StatusPending, got)

	got, ok = StatusFromOrdinal(2)
	assert.True(t, ok)
	assert.Equal(t, StatusRejected, got)

	_, ok = ParseStatus("archived")
	assert.False(t, ok)
}

func TestParseOrderField(t *testing.T) {
	for _, input := range []string{"created_at", "createdAt", "CREATED_AT"} {
		got, ok := ParseOrderField(input)
		assert.True(t, ok)
		assert.Equal(t, OrderByCreatedAt, got)
	}
	_, ok := ParseOrderField("creator")
	assert.False(t, ok)
}

func TestFilterCriteria_SameFilters(t *testing.T) {
	a := FilterCriteria{Status: StatusPending, OrderBy: OrderByTitle}
	b := FilterCriteria{Status: StatusPending, OrderBy: OrderByCreatedAt, OrderDirection: Descending}
	assert.True(t, a.SameFilters(b))

	b.Search = "server"
	assert.False(t, a.SameFilters(b))

	cleared := b.WithoutFilters()
	assert.Equal(t, FilterCriteria{OrderBy: OrderByCreatedAt, OrderDirection: Descending}, cleared)
}
