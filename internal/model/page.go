package model

// Page is one page of a paginated collection. PageIndex is zero-based and
// must stay below TotalPages unless TotalPages is zero (empty collection).
type Page[T any] struct {
	Items      []T `json:"items"`
	PageIndex  int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// SinglePage synthesizes pagination for an unpaginated result set, e.g. a
// full search response: everything on page zero, sized to the result count.
func SinglePage[T any](items []T) Page[T] {
	p := Page[T]{Items: items, PageIndex: 0, PageSize: len(items)}
	if len(items) > 0 {
		p.TotalPages = 1
		p.TotalItems = len(items)
	}
	return p
}

// SortField names a concert attribute the catalog can order by.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByTitle  SortField = "title"
	SortByArtist SortField = "artist"
)

// SortDirection is the order applied to a SortField.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec combines a field and direction. The zero value is not valid;
// use DefaultSort for the storefront default (concert date ascending).
type SortSpec struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort returns the storefront's default ordering.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortByDate, Direction: SortAsc}
}

// Valid reports whether both field and direction carry known values.
func (s SortSpec) Valid() bool {
	switch s.Field {
	case SortByDate, SortByTitle, SortByArtist:
	default:
		return false
	}
	switch s.Direction {
	case SortAsc, SortDesc:
	default:
		return false
	}
	return true
}
