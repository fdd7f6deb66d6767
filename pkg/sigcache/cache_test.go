package sigcache

import (
	"sync"
	"testing"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

func buildSet(t *testing.T) *types.SignatureSet {
	t.Helper()
	set := types.NewSignatureSet()
	if err := set.Add(&types.Signature{ID: 1, Pattern: `eval\(`, Keywords: []string{"eval"}}); err != nil {
		t.Fatal(err)
	}
	if err := set.Add(&types.Signature{ID: 2, Pattern: `^MZ`, Anchored: true, TimeoutMS: 500}); err != nil {
		t.Fatal(err)
	}
	set.Build()
	return set
}

func TestGet_MissingKeyReturnsNotFound(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	_, ok, err := c.Get("does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestPutThenGet_RoundTrips(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	want := buildSet(t)
	if err := c.Put("hash-1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get("hash-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Len() != want.Len() {
		t.Fatalf("expected %d signatures, got %d", want.Len(), got.Len())
	}

	sig, ok := got.Get(2)
	if !ok {
		t.Fatal("expected signature id 2 to round-trip")
	}
	if sig.Pattern != `^MZ` || !sig.Anchored || sig.TimeoutMS != 500 {
		t.Fatalf("signature fields did not round-trip: %+v", sig)
	}
}

func TestPut_OverwritesExistingEntry(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	first := types.NewSignatureSet()
	if err := first.Add(&types.Signature{ID: 1, Pattern: "a"}); err != nil {
		t.Fatal(err)
	}
	first.Build()
	if err := c.Put("hash-1", first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second := buildSet(t)
	if err := c.Put("hash-1", second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get("hash-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Len() != second.Len() {
		t.Fatalf("expected overwrite to take effect, got %d signatures", got.Len())
	}
}

func TestGetOrLoad_LoadsOnceOnMiss(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	var loads int
	var mu sync.Mutex
	load := func() (*types.SignatureSet, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		return buildSet(t), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetOrLoad("hash-concurrent", load); err != nil {
				t.Errorf("GetOrLoad: %v", err)
			}
		}()
	}
	wg.Wait()

	if loads != 1 {
		t.Fatalf("expected exactly 1 load for concurrent misses on the same key, got %d", loads)
	}
}

func TestGetOrLoad_HitsCacheWithoutCallingLoad(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	want := buildSet(t)
	if err := c.Put("hash-1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.GetOrLoad("hash-1", func() (*types.SignatureSet, error) {
		t.Fatal("load should not be called on a cache hit")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if got.Len() != want.Len() {
		t.Fatalf("expected %d signatures, got %d", want.Len(), got.Len())
	}
}
