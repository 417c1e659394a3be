package frontier

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/icscrawl/crawler/internal/urlcanon"
)

func newValidator() *urlcanon.Validator {
	return urlcanon.NewValidator(nil, nil)
}

func TestSeedAndFIFO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontier.db")
	seeds := []string{"https://www.ics.uci.edu/a", "https://www.ics.uci.edu/b"}
	f, err := Open(path, true, seeds, newValidator(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	u1, ok := f.GetNext()
	if !ok || u1 != "https://www.ics.uci.edu/a" {
		t.Fatalf("got %q, %v", u1, ok)
	}
	u2, ok := f.GetNext()
	if !ok || u2 != "https://www.ics.uci.edu/b" {
		t.Fatalf("got %q, %v", u2, ok)
	}
	if _, ok := f.GetNext(); ok {
		t.Fatal("expected empty frontier")
	}
}

func TestAddIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontier.db")
	f, err := Open(path, true, nil, newValidator(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	u := "https://www.ics.uci.edu/dup"
	for i := 0; i < 3; i++ {
		if err := f.Add(u); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	for {
		next, ok := f.GetNext()
		if !ok {
			break
		}
		got = append(got, next)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one entry for duplicate adds, got %v", got)
	}
}

func TestMarkCompleteMonotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontier.db")
	f, err := Open(path, true, []string{"https://www.ics.uci.edu/a"}, newValidator(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	u, _ := f.GetNext()
	if err := f.MarkComplete(u); err != nil {
		t.Fatal(err)
	}
	completed, found := f.IsCompleted(u)
	if !found || !completed {
		t.Fatalf("expected %q marked completed, found=%v completed=%v", u, found, completed)
	}
	if _, ok := f.GetNext(); ok {
		t.Fatal("completed url must not reappear in get_next")
	}
}

func TestRestartResumption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontier.db")
	seeds := []string{"https://www.ics.uci.edu/a", "https://www.ics.uci.edu/b", "https://www.ics.uci.edu/c"}

	f, err := Open(path, true, seeds, newValidator(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	first, _ := f.GetNext()
	if err := f.MarkComplete(first); err != nil {
		t.Fatal(err)
	}
	if err := f.Add("https://www.ics.uci.edu/d"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	f2, err := Open(path, false, nil, newValidator(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()

	var got []string
	for {
		u, ok := f2.GetNext()
		if !ok {
			break
		}
		got = append(got, u)
	}
	want := map[string]bool{
		"https://www.ics.uci.edu/b": true,
		"https://www.ics.uci.edu/c": true,
		"https://www.ics.uci.edu/d": true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want keys of %v", got, want)
	}
	for _, u := range got {
		if !want[u] {
			t.Errorf("unexpected pending url %q after resume", u)
		}
		if u == first {
			t.Errorf("completed url %q resurfaced after resume", u)
		}
	}
}

func TestFallsBackToSeedWhenStoreEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontier.db")
	// Create an empty store with no restart and no prior entries.
	f, err := Open(path, false, []string{"https://www.ics.uci.edu/seed"}, newValidator(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	u, ok := f.GetNext()
	if !ok || u != "https://www.ics.uci.edu/seed" {
		t.Fatalf("expected fallback seeding, got %q, %v", u, ok)
	}
}
