package list

import (
	"sort"
	"strings"

	"github.com/movement-pass/passctl/internal/domain"
)

// Column identifies a user-sortable column of the pass list.
type Column string

const (
	ColumnToLocation Column = "toLocation"
	ColumnThana      Column = "thana"
	ColumnStartAt    Column = "startAt"
	ColumnEndAt      Column = "endAt"
	ColumnType       Column = "type"
	ColumnStatus     Column = "status"
)

// KnownColumn reports whether c names a sortable column.
func KnownColumn(c Column) bool {
	switch c {
	case ColumnToLocation, ColumnThana, ColumnStartAt, ColumnEndAt, ColumnType, ColumnStatus:
		return true
	}
	return false
}

func compare(x, y domain.Pass, col Column) int {
	switch col {
	case ColumnToLocation:
		return strings.Compare(x.ToLocation, y.ToLocation)
	case ColumnThana:
		switch {
		case x.Thana < y.Thana:
			return -1
		case x.Thana > y.Thana:
			return 1
		}
		return 0
	case ColumnStartAt:
		return x.StartAt.Compare(y.StartAt)
	case ColumnEndAt:
		return x.EndAt.Compare(y.EndAt)
	case ColumnType:
		return strings.Compare(string(x.Type), string(y.Type))
	case ColumnStatus:
		return strings.Compare(string(x.Status), string(y.Status))
	}
	return 0
}

// Sort orders records in place by the given column and direction. Equal
// keys preserve their relative order; descending reverses the comparison,
// not the slice.
func Sort(records []domain.Pass, col Column, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		c := compare(records[i], records[j], col)
		if desc {
			return c > 0
		}
		return c < 0
	})
}
