package templates

import (
	"strconv"
	"strings"
)

func prefixedStrings(prefix string, count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		sb.WriteString(prefix)
		sb.WriteString(strconv.Itoa(i))
		if i < count-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

// valueArgs renders "Value[T0](o, dep0), Value[T1](o, dep1), ...".
func valueArgs(count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		n := strconv.Itoa(i)
		sb.WriteString("Value[T" + n + "](o, dep" + n + ")")
		if i < count-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}
