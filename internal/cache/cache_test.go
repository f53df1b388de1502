package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rroethle7474/timehealer-api/pkg/types"
)

func TestFingerprintQueryOrderIndependent(t *testing.T) {
	a := Fingerprint(types.OperationSearch, "", []string{"golang", "chromedp"}, false)
	b := Fingerprint(types.OperationSearch, "", []string{"chromedp", "golang"}, false)
	assert.Equal(t, a, b)
}

func TestFingerprintDistinguishesInputs(t *testing.T) {
	base := Fingerprint(types.OperationSearch, "", []string{"golang"}, false)

	assert.NotEqual(t, base, Fingerprint(types.OperationChannel, "", []string{"golang"}, false))
	assert.NotEqual(t, base, Fingerprint(types.OperationSearch, "", []string{"golang"}, true))
	assert.NotEqual(t, base, Fingerprint(types.OperationSearch, "https://x.com/explore", []string{"golang"}, false))
	assert.NotEqual(t, base, Fingerprint(types.OperationSearch, "", []string{"rust"}, false))
}

func TestFingerprintDoesNotMutateQueries(t *testing.T) {
	queries := []string{"zzz", "aaa"}
	Fingerprint(types.OperationSearch, "", queries, false)
	assert.Equal(t, []string{"zzz", "aaa"}, queries)
}

func TestSetGetHasClear(t *testing.T) {
	c := New(10, time.Minute)
	key := Fingerprint(types.OperationSearch, "", []string{"golang"}, false)

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.False(t, c.Has(key))

	results := types.ResultSet{"golang": {{Channel: "Jane", Handle: "@jane", Text: "hi"}}}
	c.Set(key, results)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, results, got)
	assert.True(t, c.Has(key))

	c.Clear()
	assert.False(t, c.Has(key))
}

func TestEntriesExpire(t *testing.T) {
	c := New(10, 50*time.Millisecond)
	key := Fingerprint(types.OperationSearch, "", []string{"golang"}, false)
	c.Set(key, types.ResultSet{"golang": nil})

	require.True(t, c.Has(key))
	time.Sleep(100 * time.Millisecond)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCapacityEviction(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("a", types.ResultSet{})
	c.Set("b", types.ResultSet{})
	c.Set("c", types.ResultSet{})

	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))
	assert.True(t, c.Has("c"))
}

func TestStats(t *testing.T) {
	c := New(100, time.Hour)
	c.Set("a", types.ResultSet{})

	stats := c.Stats()
	assert.Equal(t, 1, stats["entries"])
	assert.Equal(t, 100, stats["max_entries"])
	assert.Equal(t, 3600, stats["ttl_seconds"])
}
