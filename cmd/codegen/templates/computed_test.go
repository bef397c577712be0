package templates

import (
	"go/format"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedStrings(t *testing.T) {
	assert.Equal(t, "", prefixedStrings("T", 0))
	assert.Equal(t, "T0", prefixedStrings("T", 1))
	assert.Equal(t, "dep0, dep1, dep2", prefixedStrings("dep", 3))
}

func TestValueArgs(t *testing.T) {
	assert.Equal(t, "Value[T0](o, dep0), Value[T1](o, dep1)", valueArgs(2))
}

func TestComputedGenIsValidGo(t *testing.T) {
	src := ComputedGen(3)

	formatted, err := format.Source([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(formatted), "template output should already be gofmt clean")

	assert.True(t, strings.HasPrefix(src, "// Code generated by cmd/codegen. DO NOT EDIT."))
	assert.Contains(t, src, "func Computed3[T0, T1, T2, O any](dep0, dep1, dep2 string, fn func(T0, T1, T2) O) Property {")
	assert.NotContains(t, src, "Computed4")
}
