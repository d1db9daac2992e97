package history

import (
	"fmt"
	"testing"
	"time"
)

// TestRingAddList checks records come back newest first with details
// restored.
func TestRingAddList(t *testing.T) {
	r := NewRing(8)

	base := time.Date(2015, 11, 16, 7, 32, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r.Add(Record{
			ID:         fmt.Sprintf("id-%d", i),
			Kind:       "apply",
			Volume:     "vol0",
			Status:     StatusCompleted,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Duration:   30,
			Detail:     fmt.Sprintf("apply vol0 gid %d", i),
		})
	}

	if r.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", r.Len())
	}

	recs := r.List()
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, rec := range recs {
		wantID := fmt.Sprintf("id-%d", 2-i)
		if rec.ID != wantID {
			t.Errorf("record %d: expected %s, got %s", i, wantID, rec.ID)
		}
		wantDetail := fmt.Sprintf("apply vol0 gid %d", 2-i)
		if rec.Detail != wantDetail {
			t.Errorf("record %d: expected detail %q, got %q", i, wantDetail, rec.Detail)
		}
	}
}

// TestRingEviction checks the oldest records fall off once the ring is
// full.
func TestRingEviction(t *testing.T) {
	r := NewRing(4)

	for i := 0; i < 10; i++ {
		r.Add(Record{ID: fmt.Sprintf("id-%d", i), Status: StatusFailed})
	}

	if r.Len() != 4 {
		t.Fatalf("expected 4 records, got %d", r.Len())
	}
	recs := r.List()
	want := []string{"id-9", "id-8", "id-7", "id-6"}
	for i, rec := range recs {
		if rec.ID != want[i] {
			t.Errorf("record %d: expected %s, got %s", i, want[i], rec.ID)
		}
	}
}

// TestRingDetailCompressed checks details are not stored in plain form.
func TestRingDetailCompressed(t *testing.T) {
	r := NewRing(2)
	detail := "replicate vol0 to repl0"
	r.Add(Record{ID: "id-0", Detail: detail})

	e := r.entries[0]
	if e.record.Detail != "" {
		t.Error("expected the stored record to drop the plain detail")
	}
	if len(e.detail) == 0 {
		t.Fatal("expected a compressed detail payload")
	}
	if string(e.detail) == detail {
		t.Error("expected the payload to be encoded")
	}

	recs := r.List()
	if len(recs) != 1 || recs[0].Detail != detail {
		t.Errorf("expected detail %q back, got %+v", detail, recs)
	}
}

// TestRingEmptyDetail checks records without details stay empty.
func TestRingEmptyDetail(t *testing.T) {
	r := NewRing(2)
	r.Add(Record{ID: "id-0"})

	recs := r.List()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Detail != "" {
		t.Errorf("expected empty detail, got %q", recs[0].Detail)
	}
}

// TestRingZeroSize checks a non-positive capacity still yields a usable
// ring.
func TestRingZeroSize(t *testing.T) {
	r := NewRing(0)
	r.Add(Record{ID: "id-0"})
	r.Add(Record{ID: "id-1"})

	if r.Cap() != 1 {
		t.Errorf("expected capacity 1, got %d", r.Cap())
	}
	recs := r.List()
	if len(recs) != 1 || recs[0].ID != "id-1" {
		t.Errorf("expected only id-1, got %+v", recs)
	}
}
