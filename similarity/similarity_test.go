package similarity

import (
	"math/rand/v2"
	"slices"
	"testing"

	"imagedup/cache"
	"imagedup/types"
)

func entry(path string, hash types.ImageHash) types.CacheEntry {
	return types.CacheEntry{FileIdentity: types.FileIdentity{Path: path}, Hash: hash}
}

func TestFindPairsToyScenario(t *testing.T) {
	entries := []types.CacheEntry{
		entry("c", 0b1111),
		entry("a", 0b0000),
		entry("b", 0b0001),
	}

	got := FindPairs(entries, 1)
	want := []types.SimilarPair{{A: "a", B: "b", Distance: 1}}
	if !slices.Equal(got, want) {
		t.Fatalf("FindPairs = %+v, want %+v", got, want)
	}
}

func TestFindPairsSmallInputs(t *testing.T) {
	for _, entries := range [][]types.CacheEntry{nil, {entry("only", 0)}} {
		got := FindPairs(entries, Threshold)
		if got == nil || len(got) != 0 {
			t.Fatalf("FindPairs(%v) = %#v, want empty non-nil", entries, got)
		}
	}
}

func TestFindPairsThresholdIsInclusive(t *testing.T) {
	nine := types.ImageHash(0x1ff) // 9 bits set
	ten := types.ImageHash(0x3ff)  // 10 bits set
	entries := []types.CacheEntry{entry("base", 0), entry("nine", nine), entry("ten", ten)}

	got := FindPairs(entries, Threshold)
	want := []types.SimilarPair{
		{A: "nine", B: "ten", Distance: 1},
		{A: "base", B: "nine", Distance: 9},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("FindPairs = %+v, want %+v", got, want)
	}
}

func TestFindPairsProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	var entries []types.CacheEntry
	base := types.ImageHash(r.Uint64())
	for i := 0; i < 40; i++ {
		h := base
		// flip a handful of bits so some pairs land under the threshold
		flips := r.IntN(12)
		for k := 0; k < flips; k++ {
			h ^= 1 << r.IntN(64)
		}
		entries = append(entries, entry(string(rune('a'+i%26))+string(rune('0'+i/26)), h))
	}

	pairs := FindPairs(entries, Threshold)

	seen := make(map[[2]string]bool)
	for i, p := range pairs {
		if p.A >= p.B {
			t.Fatalf("pair %d not ordered: %+v", i, p)
		}
		if p.Distance > Threshold {
			t.Fatalf("pair %d exceeds threshold: %+v", i, p)
		}
		key := [2]string{p.A, p.B}
		if seen[key] {
			t.Fatalf("pair emitted twice: %+v", p)
		}
		seen[key] = true
		if i > 0 {
			prev := pairs[i-1]
			if prev.Distance > p.Distance || (prev.Distance == p.Distance && prev.A > p.A) {
				t.Fatalf("pairs out of order at %d: %+v then %+v", i, prev, p)
			}
		}
	}

	// every qualifying pair is present
	count := 0
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].Hash.Distance(entries[j].Hash) <= Threshold {
				count++
			}
		}
	}
	if count != len(pairs) {
		t.Fatalf("got %d pairs, brute force found %d", len(pairs), count)
	}

	// input order does not matter
	reversed := slices.Clone(entries)
	slices.Reverse(reversed)
	if !slices.Equal(FindPairs(reversed, Threshold), pairs) {
		t.Fatal("result depends on input order")
	}
}

func TestFindDuplicates(t *testing.T) {
	store := cache.New()
	store.Insert(entry("x.jpg", 0xff))
	store.Insert(entry("y.jpg", 0xfe))

	got := FindDuplicates(store, Threshold)
	if len(got) != 1 || got[0].A != "x.jpg" || got[0].B != "y.jpg" {
		t.Fatalf("FindDuplicates = %+v", got)
	}
}

func TestGroups(t *testing.T) {
	pairs := []types.SimilarPair{
		{A: "b", B: "c", Distance: 1},
		{A: "x", B: "y", Distance: 2},
		{A: "a", B: "b", Distance: 3},
	}

	got := Groups(pairs)
	want := [][]string{{"a", "b", "c"}, {"x", "y"}}
	if len(got) != len(want) {
		t.Fatalf("Groups = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Fatalf("Groups = %v, want %v", got, want)
		}
	}

	if g := Groups(nil); g == nil || len(g) != 0 {
		t.Fatalf("Groups(nil) = %#v", g)
	}
}

func TestFindMatches(t *testing.T) {
	entries := []types.CacheEntry{
		entry("far.jpg", 0xffff),
		entry("exact.jpg", 0x0),
		entry("close.jpg", 0x3),
	}

	got := FindMatches(entries, 0x0, Threshold)
	if len(got) != 2 {
		t.Fatalf("FindMatches = %+v", got)
	}
	if got[0].Path != "exact.jpg" || got[0].Distance != 0 || got[1].Path != "close.jpg" || got[1].Distance != 2 {
		t.Fatalf("FindMatches order = %+v", got)
	}
	if got[1].Hash != "0000000000000003" {
		t.Fatalf("hash string = %q", got[1].Hash)
	}
}
