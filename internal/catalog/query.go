package catalog

import (
	"strings"

	"pamazon/internal/domain"
)

// Filter returns the products matching both the search term and the
// category, in input order. The term is a case-insensitive substring of the
// name or description; an empty term matches everything. The category must
// match exactly; an empty category means all categories.
func Filter(products []*domain.Product, searchTerm, category string) []*domain.Product {
	term := strings.ToLower(searchTerm)

	result := []*domain.Product{}
	for _, p := range products {
		if matchesSearch(p, term) && matchesCategory(p, category) {
			result = append(result, p)
		}
	}
	return result
}

func matchesSearch(p *domain.Product, lowerTerm string) bool {
	if lowerTerm == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), lowerTerm) ||
		strings.Contains(strings.ToLower(p.Description), lowerTerm)
}

func matchesCategory(p *domain.Product, category string) bool {
	return category == "" || p.Category == category
}
