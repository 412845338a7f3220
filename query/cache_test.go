package query

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCache_HitsAndMisses(t *testing.T) {
	c, err := NewCache(0)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	want := Parse(ctx, "a:b or c:d")

	for range 3 {
		got := c.Parse(ctx, "a:b or c:d")
		if diff := cmp.Diff(want.Parsed, got.Parsed); diff != "" {
			t.Errorf("cached tree mismatch (-want +got):\n%s", diff)
		}
	}

	if s := c.Stats(); s.Hits != 2 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("stats = %+v", s)
	}

	c.Purge()

	if s := c.Stats(); s.Len != 0 {
		t.Errorf("len after purge = %d", s.Len)
	}
}

func TestCache_CloneIsolation(t *testing.T) {
	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	first := c.Parse(ctx, "a:b")
	first.Parsed[0].Expression.Key = "mutated"
	first.Meta.Keys[0] = "mutated"

	second := c.Parse(ctx, "a:b")
	if second.Parsed[0].Expression.Key != "a" || second.Meta.Keys[0] != "a" {
		t.Error("mutating a returned result changed the cache")
	}
}

func TestCache_KeyedByOptions(t *testing.T) {
	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	eq := c.Parse(ctx, "a:b")
	ne := c.Parse(ctx, "a:b", WithDefaultOperator("ne"))

	if eq.Parsed[0].Expression.Operator != "eq" || ne.Parsed[0].Expression.Operator != "ne" {
		t.Errorf("operators = %q, %q", eq.Parsed[0].Expression.Operator, ne.Parsed[0].Expression.Operator)
	}

	if s := c.Stats(); s.Misses != 2 || s.Len != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCache_BypassHooks(t *testing.T) {
	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	upper := WithTransform(TransformFunc(func(e Expression) Expression {
		e.Value = strings.ToUpper(e.Value)

		return e
	}))

	for range 2 {
		res := c.Parse(ctx, "a:b", upper)
		if res.Parsed[0].Expression.Value != "B" {
			t.Errorf("value = %q", res.Parsed[0].Expression.Value)
		}
	}

	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Len != 0 {
		t.Errorf("stats = %+v, want untouched cache", s)
	}
}

func TestCache_Nil(t *testing.T) {
	var c *Cache

	if res := c.Parse(context.Background(), "a:b"); !res.Complete() {
		t.Errorf("unparsed = %q", res.Unparsed)
	}

	c.Purge()

	if s := c.Stats(); s != (CacheStats{}) {
		t.Errorf("stats = %+v, want zero", s)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatal(err)
	}

	inputs := []string{"a:b", "c:d or e:f", "(g:h)", "i:j k", "l:m", "n:o"}

	var wg sync.WaitGroup

	for i := range 32 {
		wg.Go(func() {
			in := inputs[i%len(inputs)]
			if got, want := c.Parse(context.Background(), in), Parse(context.Background(), in); got.Unparsed != want.Unparsed {
				t.Errorf("%q: unparsed %q, want %q", in, got.Unparsed, want.Unparsed)
			}
		})
	}

	wg.Wait()
}
