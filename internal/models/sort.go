package models

// SortKey 列表排序字段
type SortKey string

const (
	SortLikes SortKey = "likes"
	SortDate  SortKey = "date"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortKey falls back to SortLikes for anything unrecognised.
func ParseSortKey(s string) SortKey {
	if SortKey(s) == SortDate {
		return SortDate
	}
	return SortLikes
}

// ParseSortOrder falls back to OrderDesc for anything unrecognised.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}
