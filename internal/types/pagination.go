package types

// PageQuery is a 1-based offset pagination request.
type PageQuery struct {
	Page  int
	Limit int
}

// Normalize clamps the query to sane bounds.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

func NewPagination(q PageQuery, total int64) Pagination {
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return Pagination{
		Total:       total,
		TotalPages:  pages,
		CurrentPage: q.Page,
		Limit:       q.Limit,
	}
}
