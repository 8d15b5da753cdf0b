package levelkv

import (
	"errors"
	"testing"
)

// =============================================================================
// Iterator contract
// =============================================================================

func citiesDB(t *testing.T) *DB {
	t.Helper()
	db := openTestDB(t, nil)
	mustPut(t, db, "Tampa", "green")
	mustPut(t, db, "London", "red")
	mustPut(t, db, "New York", "blue")
	return db
}

func TestIterator_Order(t *testing.T) {
	db := citiesDB(t)

	want := []string{"London", "New York", "Tampa"}
	if got := keysOf(t, db, nil); !equalStrings(got, want) {
		t.Errorf("forward keys = %v, want %v", got, want)
	}

	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	var back []string
	for it.SeekToLast(); it.Valid(); it.Prev() {
		back = append(back, string(it.Key()))
	}
	if !equalStrings(back, []string{"Tampa", "New York", "London"}) {
		t.Errorf("backward keys = %v", back)
	}
}

func TestIterator_ValidOnlyWhenPositioned(t *testing.T) {
	db := citiesDB(t)
	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	if it.Valid() {
		t.Error("new iterator must not be valid before positioning")
	}
	if it.Key() != nil || it.Value() != nil {
		t.Error("unpositioned iterator returned data")
	}

	// Next and Prev on an invalid iterator are no-ops.
	it.Next()
	it.Prev()
	if it.Valid() {
		t.Error("Next/Prev positioned an invalid iterator")
	}

	it.SeekToFirst()
	for it.Valid() {
		it.Next()
	}
	it.Next()
	if it.Valid() {
		t.Error("iterator valid after exhaustion")
	}
}

func TestIterator_Seek(t *testing.T) {
	db := citiesDB(t)
	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	tests := []struct {
		target    string
		wantKey   string
		wantValid bool
	}{
		{"", "London", true},
		{"London", "London", true},
		{"M", "New York", true},
		{"Tampa", "Tampa", true},
		{"Zurich", "", false},
	}
	for _, tt := range tests {
		it.Seek([]byte(tt.target))
		if it.Valid() != tt.wantValid {
			t.Errorf("Seek(%q) valid = %v, want %v", tt.target, it.Valid(), tt.wantValid)
			continue
		}
		if tt.wantValid && string(it.Key()) != tt.wantKey {
			t.Errorf("Seek(%q) key = %q, want %q", tt.target, it.Key(), tt.wantKey)
		}
	}
}

func TestIterator_KeyValueAreCopies(t *testing.T) {
	db := citiesDB(t)
	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	it.SeekToFirst()
	k, v := it.Key(), it.Value()
	it.Next()
	it.Next()
	if string(k) != "London" || string(v) != "red" {
		t.Errorf("retained key/value changed: %q=%q", k, v)
	}
}

func TestIterator_CloseIdempotent(t *testing.T) {
	db := citiesDB(t)
	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	it.SeekToFirst()
	it.Close()
	it.Close()

	if it.Valid() {
		t.Error("closed iterator is valid")
	}
	it.SeekToFirst()
	it.Seek([]byte("London"))
	it.Next()
	if err := it.Error(); !errors.Is(err, ErrUseAfterDispose) {
		t.Errorf("Error after Close = %v, want ErrUseAfterDispose", err)
	}

	db.mu.Lock()
	tracked := len(db.iters)
	db.mu.Unlock()
	if tracked != 0 {
		t.Errorf("closed iterator still tracked (%d)", tracked)
	}
}

func TestIterator_AllSinglePass(t *testing.T) {
	db := citiesDB(t)
	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var got []string
	for k, v := range it.All() {
		got = append(got, string(k)+"="+string(v))
	}
	want := []string{"London=red", "New York=blue", "Tampa=green"}
	if !equalStrings(got, want) {
		t.Errorf("All = %v, want %v", got, want)
	}

	n := 0
	for range it.All() {
		n++
	}
	if n != 0 {
		t.Errorf("exhausted iterator yielded %d more entries", n)
	}
}

func TestIterator_AllFromSeek(t *testing.T) {
	db := citiesDB(t)
	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	it.Seek([]byte("New York"))
	var got []string
	for k := range it.All() {
		got = append(got, string(k))
	}
	if !equalStrings(got, []string{"New York", "Tampa"}) {
		t.Errorf("All after Seek = %v", got)
	}
}

func TestIterator_Backward(t *testing.T) {
	db := citiesDB(t)
	it, err := db.NewIterator(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var got []string
	for k := range it.Backward() {
		got = append(got, string(k))
		if len(got) == 2 {
			break
		}
	}
	if !equalStrings(got, []string{"Tampa", "New York"}) {
		t.Errorf("Backward = %v", got)
	}
	if string(it.Key()) != "New York" {
		t.Errorf("iterator after break at %q, want New York", it.Key())
	}
}
