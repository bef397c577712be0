package kvo

import (
	"cmp"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortByProperties returns a comparison function for slices.SortFunc that
// orders objects by each key in turn until two values differ. Values are
// only compared when both have the same type: booleans sort true first,
// strings compare case-insensitively under the root collation and decide the
// order on their own, numbers and times compare naturally.
func SortByProperties(keys ...string) func(a, b *Object) int {
	col := collate.New(language.Und, collate.IgnoreCase)
	return func(a, b *Object) int {
		for _, key := range keys {
			av, bv := a.Get(key), b.Get(key)
			switch x := av.(type) {
			case bool:
				if y, ok := bv.(bool); ok && x != y {
					if x {
						return -1
					}
					return 1
				}
			case string:
				if y, ok := bv.(string); ok {
					return col.CompareString(x, y)
				}
			case int:
				if y, ok := bv.(int); ok && x != y {
					return cmp.Compare(x, y)
				}
			case int64:
				if y, ok := bv.(int64); ok && x != y {
					return cmp.Compare(x, y)
				}
			case uint:
				if y, ok := bv.(uint); ok && x != y {
					return cmp.Compare(x, y)
				}
			case float64:
				if y, ok := bv.(float64); ok && x != y {
					return cmp.Compare(x, y)
				}
			case time.Time:
				if y, ok := bv.(time.Time); ok && !x.Equal(y) {
					return x.Compare(y)
				}
			}
		}
		return 0
	}
}
