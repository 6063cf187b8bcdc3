package asset

import (
	"testing"

	"room-studio/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}
	s, err := NewStore(backend)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func TestAddKeepsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Add(Asset{URL: "https://cdn.test/a.png", Kind: KindOriginal})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := s.Add(Asset{URL: "https://cdn.test/b.png", Kind: KindCleaned})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(all))
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("display order is not newest-first: got [%s %s]", all[0].ID, all[1].ID)
	}
	if s.Newest().ID != second.ID {
		t.Errorf("Newest returned %s, want %s", s.Newest().ID, second.ID)
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	s := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		a, err := s.Add(Asset{URL: "https://cdn.test/x.png", Kind: KindOriginal})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if a.ID == "" {
			t.Fatal("empty asset ID")
		}
		if seen[a.ID] {
			t.Fatalf("duplicate asset ID %s", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.Add(Asset{URL: "https://cdn.test/a.png", Kind: KindOriginal})
	b, _ := s.Add(Asset{URL: "https://cdn.test/b.png", Kind: KindStaged})

	removed, err := s.Remove(a.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed == nil || removed.ID != a.ID {
		t.Fatalf("Remove returned %+v, want asset %s", removed, a.ID)
	}
	if s.Has(a.ID) {
		t.Error("removed asset still present")
	}
	if !s.Has(b.ID) {
		t.Error("unrelated asset was removed")
	}

	removed, err = s.Remove("no-such-id")
	if err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	if removed != nil {
		t.Errorf("Remove of unknown ID returned %+v", removed)
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	s, err := NewStore(backend)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	img, _ := s.Add(Asset{URL: "https://cdn.test/room.png", Kind: KindOriginal})
	vid, _ := s.Add(Asset{
		URL:           "https://cdn.test/room.png",
		Kind:          KindVideo,
		VideoURL:      "https://cdn.test/room.mp4",
		SourceAssetID: img.ID,
		Metadata:      &Metadata{Prompt: "rotate slowly"},
	})

	// Reopen from the same directory.
	backend2, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("reopen backend: %v", err)
	}
	s2, err := NewStore(backend2)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}

	if s2.Len() != 2 {
		t.Fatalf("reloaded store has %d assets, want 2", s2.Len())
	}
	got := s2.Get(vid.ID)
	if got == nil {
		t.Fatal("video asset missing after reload")
	}
	if got.VideoURL != vid.VideoURL || got.SourceAssetID != img.ID {
		t.Errorf("video fields lost in round-trip: %+v", got)
	}
	if got.Metadata == nil || got.Metadata.Prompt != "rotate slowly" {
		t.Errorf("metadata lost in round-trip: %+v", got.Metadata)
	}
	if !got.IsVideo() {
		t.Error("IsVideo is false after reload")
	}
}

func TestFindReference(t *testing.T) {
	s := newTestStore(t)

	s.Add(Asset{URL: "https://cdn.test/room.png", Kind: KindOriginal})
	ref, _ := s.Add(Asset{URL: "https://cdn.test/sofa.png", Kind: KindReference})

	if got := s.FindReference("https://cdn.test/sofa.png"); got == nil || got.ID != ref.ID {
		t.Errorf("FindReference returned %+v, want %s", got, ref.ID)
	}
	// A non-reference asset with the same URL must not match.
	if got := s.FindReference("https://cdn.test/room.png"); got != nil {
		t.Errorf("FindReference matched non-reference asset %+v", got)
	}
}
