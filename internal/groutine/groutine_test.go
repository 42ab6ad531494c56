package groutine

import (
	"context"
	"runtime/pprof"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGo_NamesGoroutine(t *testing.T) {
	type result struct {
		name  string
		label string
		gid   uint64
	}
	done := make(chan result, 1)

	Go(nil, "worker-42", func(ctx context.Context) { //nolint:staticcheck // nil parent is supported
		label, _ := pprof.Label(ctx, "goroutine_name")
		done <- result{name: GetName(ctx), label: label, gid: GetGID()}
	})

	r := <-done
	assert.Equal(t, "worker-42", r.name)
	assert.Equal(t, "worker-42", r.label, "pprof label MUST carry the goroutine name")
	assert.NotZero(t, r.gid)
	assert.NotEqual(t, GetGID(), r.gid)
}

func TestGroup_WaitsForAll(t *testing.T) {
	var g Group
	var count atomic.Int32

	for i := 0; i < 10; i++ {
		g.Go(context.Background(), "counter", func(ctx context.Context) {
			count.Add(1)
		})
	}
	g.Wait()

	assert.EqualValues(t, 10, count.Load(), "Wait MUST return only after every goroutine finished")
}

func TestGetName_WithoutName(t *testing.T) {
	assert.Empty(t, GetName(context.Background()))
	assert.Empty(t, GetName(nil)) //nolint:staticcheck // nil context is handled
}
