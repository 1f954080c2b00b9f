package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordQuery_Keyword(t *testing.T) {
	tests := []struct {
		name  string
		query KeywordQuery
		want  string
	}{
		{"empty", KeywordQuery{}, ""},
		{"name only", KeywordQuery{Name: "capacitor"}, "capacitor"},
		{"all fields in order", KeywordQuery{Name: "capacitor", Value: "10uF", Package: "0603", Manufacturer: "Samsung"}, "capacitor 10uF 0603 Samsung"},
		{"blank fields skipped", KeywordQuery{Name: "  ", Value: " 10k ", Package: "0402"}, "10k 0402"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Keyword())
		})
	}
}

func TestKeywordQuery_PageOrFirst(t *testing.T) {
	assert.Equal(t, 1, KeywordQuery{}.PageOrFirst())
	assert.Equal(t, 1, KeywordQuery{Page: -3}.PageOrFirst())
	assert.Equal(t, 4, KeywordQuery{Page: 4}.PageOrFirst())
}
