package persistence

import (
	"strings"

	"github.com/farmtohome/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// filterColumns describes how a shared.Filter maps onto an entity's table:
// which columns participate in free-text search, which filter keys are
// accepted, which columns may be sorted on and the fallback ordering.
type filterColumns struct {
	searchColumns []string
	allowed       map[string]string
	sortable      map[string]bool
	defaultOrder  string
}

// applyFilter applies search, filters, ordering and pagination to the query
func applyFilter(query *gorm.DB, filter shared.Filter, cols filterColumns) *gorm.DB {
	query = applyFilterWithoutPagination(query, filter, cols)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering, restricted to whitelisted columns
	orderBy := validateSortField(filter.OrderBy, cols.sortable)
	if orderBy != "" {
		query = query.Order(orderBy + " " + validateSortOrder(filter.OrderDir))
	} else if cols.defaultOrder != "" {
		query = query.Order(cols.defaultOrder)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies search and filters only, for counting
func applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter, cols filterColumns) *gorm.DB {
	if filter.Search != "" && len(cols.searchColumns) > 0 {
		searchPattern := "%" + filter.Search + "%"
		conditions := make([]string, len(cols.searchColumns))
		args := make([]interface{}, len(cols.searchColumns))
		for i, col := range cols.searchColumns {
			conditions[i] = col + " ILIKE ?"
			args[i] = searchPattern
		}
		query = query.Where(strings.Join(conditions, " OR "), args...)
	}

	for key, value := range filter.Filters {
		column, ok := cols.allowed[key]
		if !ok {
			continue
		}
		if value == nil {
			query = query.Where(column + " IS NULL")
		} else {
			query = query.Where(column+" = ?", value)
		}
	}

	return query
}

// validateSortOrder normalizes the sort direction, defaulting to DESC
func validateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// validateSortField validates the sort field against the whitelist.
// Returns "" when the field is empty or not allowed.
func validateSortField(sortField string, sortable map[string]bool) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !sortable[trimmed] {
		return ""
	}
	return trimmed
}

// commonSortFields are present on every aggregate table
var commonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// mergeSortFields combines the common sort fields with entity-specific ones
func mergeSortFields(extra ...string) map[string]bool {
	fields := make(map[string]bool, len(commonSortFields)+len(extra))
	for field := range commonSortFields {
		fields[field] = true
	}
	for _, field := range extra {
		fields[field] = true
	}
	return fields
}
