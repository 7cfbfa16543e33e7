package arbitrage

import (
	"testing"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

func TestGroupByEvent(t *testing.T) {
	markets := []domain.Market{
		{ID: "1", EventSlug: "lakers-celtics"},
		{ID: "2", EventID: "evt-9"},
		{ID: "3", EventSlug: "lakers-celtics", EventID: "evt-ignored"},
		{ID: "4", Question: "Will it rain?"},
		{ID: "5", EventID: "evt-9"},
		{ID: "6", Question: "Will it rain?"},
	}

	groups := GroupByEvent(markets)

	wantKeys := []string{"lakers-celtics", "evt-9", "Will it rain?"}
	if len(groups) != len(wantKeys) {
		t.Fatalf("got %d groups, want %d", len(groups), len(wantKeys))
	}
	wantIDs := [][]string{{"1", "3"}, {"2", "5"}, {"4", "6"}}
	for i, g := range groups {
		if g.Key != wantKeys[i] {
			t.Errorf("group %d key = %q, want %q", i, g.Key, wantKeys[i])
		}
		if len(g.Markets) != len(wantIDs[i]) {
			t.Fatalf("group %q has %d markets, want %d", g.Key, len(g.Markets), len(wantIDs[i]))
		}
		for j, m := range g.Markets {
			if m.ID != wantIDs[i][j] {
				t.Errorf("group %q market %d = %s, want %s", g.Key, j, m.ID, wantIDs[i][j])
			}
		}
	}
}

func TestGroupByEventSlugIndependentOfOrder(t *testing.T) {
	forward := []domain.Market{
		{ID: "a", EventSlug: "e"},
		{ID: "x", EventSlug: "other"},
		{ID: "b", EventSlug: "e"},
	}
	reversed := []domain.Market{forward[2], forward[1], forward[0]}

	for name, in := range map[string][]domain.Market{"forward": forward, "reversed": reversed} {
		t.Run(name, func(t *testing.T) {
			var found int
			for _, g := range GroupByEvent(in) {
				if g.Key != "e" {
					for _, m := range g.Markets {
						if m.EventSlug == "e" {
							t.Errorf("market %s landed in group %q", m.ID, g.Key)
						}
					}
					continue
				}
				found++
				if len(g.Markets) != 2 {
					t.Errorf("group e has %d markets, want 2", len(g.Markets))
				}
			}
			if found != 1 {
				t.Errorf("found %d groups keyed e, want 1", found)
			}
		})
	}
}

func TestGroupByEventUngroupedMarketsStayApart(t *testing.T) {
	groups := GroupByEvent([]domain.Market{{ID: "m1"}, {ID: "m2"}})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Key != "ungrouped:m1" || groups[1].Key != "ungrouped:m2" {
		t.Errorf("keys = %q, %q", groups[0].Key, groups[1].Key)
	}
}

func TestGroupByEventEmpty(t *testing.T) {
	if groups := GroupByEvent(nil); len(groups) != 0 {
		t.Errorf("got %d groups for no markets", len(groups))
	}
}
