package alloc

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Larger than any address space can hold once alignment is added.
const absurdSize = ^uintptr(0) - 1<<12

type block struct {
	p    unsafe.Pointer
	size uintptr
}

func requireHost(t testing.TB) {
	t.Helper()
	if !Available {
		t.Skipf("no aligned allocator in this build (%s)", Variant)
	}
}

// fill writes a pattern over the whole block and reads it back.
func fill(t testing.TB, p unsafe.Pointer, size uintptr, seed byte) {
	t.Helper()
	buf := Bytes(p, size)
	for i := range buf {
		buf[i] = seed + byte(i)
	}
	for i := range buf {
		if buf[i] != seed+byte(i) {
			t.Fatalf("byte %d of %p: got %#x", i, p, buf[i])
		}
	}
}

func requireDisjoint(t testing.TB, blocks []block) {
	t.Helper()
	sorted := append([]block(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return uintptr(sorted[i].p) < uintptr(sorted[j].p) })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		end := uintptr(prev.p) + prev.size
		require.LessOrEqualf(t, end, uintptr(cur.p), "%p+%d overlaps %p", prev.p, prev.size, cur.p)
	}
}

func TestScenarioSmall(t *testing.T) {
	requireHost(t)

	p := AllocAligned(64, 8)
	require.NotNil(t, p)
	defer FreeAligned(p, 64)

	assert.True(t, IsAligned(p, 8))
	fill(t, p, 64, 0x11)
}

func TestScenarioPage(t *testing.T) {
	requireHost(t)

	p := AllocAligned(4096, 4096)
	require.NotNil(t, p)
	defer FreeAligned(p, 4096)

	assert.Zero(t, uintptr(p)%4096)
	fill(t, p, 4096, 0x22)
}

func TestScenarioAbsurdSize(t *testing.T) {
	requireHost(t)

	var p unsafe.Pointer
	require.NotPanics(t, func() { p = AllocAligned(absurdSize, 8) })
	assert.Nil(t, p)

	p = AllocAligned(^uintptr(0), 4096)
	assert.Nil(t, p)

	// half the address space; a 32-bit host may really have 2 GiB free
	if ptrSize == 8 {
		half := ^uintptr(0)>>1 + 1
		p = AllocAligned(half, 8)
		assert.Nil(t, p)
	}
}

func TestAlignmentPowersOfTwo(t *testing.T) {
	requireHost(t)

	sizes := []uintptr{1, 7, 64, 100, 4096, 10000}
	for align := ptrSize; align <= 1<<16; align <<= 1 {
		for _, size := range sizes {
			t.Run(fmt.Sprintf("align%d_size%d", align, size), func(t *testing.T) {
				p := AllocAligned(size, align)
				require.NotNil(t, p)
				defer FreeAligned(p, size)

				require.True(t, IsAligned(p, align), "%p not aligned to %d", p, align)
				fill(t, p, size, byte(align))
			})
		}
	}
}

func TestRepeatedRequestsDoNotAlias(t *testing.T) {
	requireHost(t)

	const n = 256
	blocks := make([]block, 0, n)
	defer func() {
		for _, b := range blocks {
			FreeAligned(b.p, b.size)
		}
	}()

	for i := 0; i < n; i++ {
		p := AllocAligned(64, 64)
		require.NotNil(t, p)
		blocks = append(blocks, block{p, 64})
		fill(t, p, 64, byte(i))
	}

	requireDisjoint(t, blocks)

	// every pattern must survive the writes into the other blocks
	for i, b := range blocks {
		buf := Bytes(b.p, b.size)
		for j := range buf {
			require.Equal(t, byte(i)+byte(j), buf[j])
		}
	}
}

func TestDisjointFromGoHeap(t *testing.T) {
	requireHost(t)

	goBuf := make([]byte, 1<<16)
	p := AllocAligned(1<<16, 64)
	require.NotNil(t, p)
	defer FreeAligned(p, 1<<16)

	requireDisjoint(t, []block{
		{unsafe.Pointer(&goBuf[0]), uintptr(len(goBuf))},
		{p, 1 << 16},
	})
}

func TestConcurrentAllocations(t *testing.T) {
	requireHost(t)

	const (
		workers   = 8
		perWorker = 64
	)

	var (
		mu     sync.Mutex
		blocks []block
	)
	defer func() {
		for _, b := range blocks {
			FreeAligned(b.p, b.size)
		}
	}()

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				size := uintptr(32 * (i + 1))
				p := AllocAligned(size, 32)
				if p == nil {
					return fmt.Errorf("worker %d: allocation %d failed", w, i)
				}
				mu.Lock()
				blocks = append(blocks, block{p, size})
				mu.Unlock()
				if !IsAligned(p, 32) {
					return fmt.Errorf("worker %d: %p not aligned", w, p)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, blocks, workers*perWorker)
	requireDisjoint(t, blocks)
}

func TestZeroSizePassThrough(t *testing.T) {
	requireHost(t)

	// the host decides what a zero-size request yields; it just must not crash
	var p unsafe.Pointer
	require.NotPanics(t, func() { p = AllocAligned(0, 16) })
	if p != nil {
		assert.True(t, IsAligned(p, 16))
		FreeAligned(p, 0)
	}
}

func TestRequestDo(t *testing.T) {
	requireHost(t)

	r := Request{Size: 128, Alignment: 128}
	p := r.Do()
	require.NotNil(t, p)
	defer FreeAligned(p, r.Size)
	assert.True(t, IsAligned(p, r.Alignment))
}

func TestIsAligned(t *testing.T) {
	assert.True(t, IsAligned(unsafe.Pointer(nil), 8))
	assert.False(t, IsAligned(unsafe.Pointer(nil), 0))

	var words [4]uint64
	p := unsafe.Pointer(&words[0])
	assert.True(t, IsAligned(p, 8))
	assert.False(t, IsAligned(unsafe.Add(p, 1), 8))
}

func TestBytes(t *testing.T) {
	assert.Nil(t, Bytes(nil, 16))

	var words [2]uint64
	b := Bytes(unsafe.Pointer(&words[0]), 16)
	require.Len(t, b, 16)
	b[0] = 0xff
	assert.Equal(t, byte(0xff), *(*byte)(unsafe.Pointer(&words[0])))
}

func TestFreeNil(t *testing.T) {
	assert.NotPanics(t, func() { FreeAligned(nil, 64) })
}
