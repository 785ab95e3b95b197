package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_AllocateAndView(t *testing.T) {
	pool := NewPool[int]()
	a := pool.Allocate()
	*a = 42
	require.Equal(t, 1, pool.Allocated())
	require.Equal(t, 42, *pool.View(0))
}

func TestPool_AllocateAcrossPages(t *testing.T) {
	pool := NewPool[int]()
	const n = poolPageSize*2 + 7
	ptrs := make([]*int, n)
	for i := 0; i < n; i++ {
		ptrs[i] = pool.Allocate()
		*ptrs[i] = i
	}
	require.Equal(t, n, pool.Allocated())
	for i := 0; i < n; i++ {
		require.Equal(t, i, *pool.View(i))
		require.Same(t, ptrs[i], pool.View(i))
	}
}

func TestPool_Reset(t *testing.T) {
	pool := NewPool[int]()
	for i := 0; i < poolPageSize+3; i++ {
		pool.Allocate()
	}
	pool.Reset()
	require.Equal(t, 0, pool.Allocated())
	a := pool.Allocate()
	require.Equal(t, 0, *a)
	require.Equal(t, 1, pool.Allocated())
}
