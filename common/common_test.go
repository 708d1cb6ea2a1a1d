package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := MakeSet[string]()
	assert.False(t, s.Has("size"))
	s.Insert("size")
	s.Insert("fill")
	s.Insert("size")
	assert.True(t, s.Has("size"))
	assert.Len(t, s, 2)
	assert.Equal(t, []string{"fill", "size"}, Sorted(s))

	s2 := SetWith(3, 1, 2)
	assert.Equal(t, []int{1, 2, 3}, Sorted(s2))
}
