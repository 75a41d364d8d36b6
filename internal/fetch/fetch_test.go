package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/qdl-tool/qdl/internal/catalog"
)

// recordingWriter succeeds only at the tiers listed in available and
// reports every attempted tier in order.
type recordingWriter struct {
	available map[Tier]bool
	fail      error
	attempts  []Tier
}

func (w *recordingWriter) Fetch(ctx context.Context, task Task, tier Tier) error {
	w.attempts = append(w.attempts, tier)
	if w.fail != nil {
		return w.fail
	}
	if w.available[tier] {
		return nil
	}
	return fmt.Errorf("%w: tier %d", catalog.ErrUnstreamable, tier)
}

func TestFallbackOrder(t *testing.T) {
	tests := []struct {
		requested Tier
		want      []Tier
	}{
		{TierHiRes96, []Tier{TierHiRes96, TierHiRes, TierCD, TierMP3}},
		{TierHiRes, []Tier{TierHiRes, TierCD, TierMP3}},
		{TierCD, []Tier{TierCD, TierMP3}},
		{TierMP3, []Tier{TierMP3}},
	}
	for _, tc := range tests {
		got := FallbackOrder(tc.requested)
		if len(got) != len(tc.want) {
			t.Errorf("FallbackOrder(%d) = %v, want %v", tc.requested, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("FallbackOrder(%d) = %v, want %v", tc.requested, got, tc.want)
				break
			}
		}
	}
}

func TestFetchWalksTiersDown(t *testing.T) {
	writer := &recordingWriter{available: map[Tier]bool{TierMP3: true}}
	fetcher := &Fetcher{Writer: writer, Fallback: true}

	got, err := fetcher.Fetch(context.Background(), Task{Quality: TierHiRes96})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != TierMP3 {
		t.Errorf("obtained tier = %d, want %d", got, TierMP3)
	}

	wantAttempts := []Tier{TierHiRes96, TierHiRes, TierCD, TierMP3}
	if len(writer.attempts) != len(wantAttempts) {
		t.Fatalf("attempts = %v, want %v", writer.attempts, wantAttempts)
	}
	for i := range wantAttempts {
		if writer.attempts[i] != wantAttempts[i] {
			t.Fatalf("attempts = %v, want %v", writer.attempts, wantAttempts)
		}
	}
}

func TestFetchStopsAtRequestedTier(t *testing.T) {
	writer := &recordingWriter{available: map[Tier]bool{TierHiRes: true, TierCD: true}}
	fetcher := &Fetcher{Writer: writer, Fallback: true}

	got, err := fetcher.Fetch(context.Background(), Task{Quality: TierHiRes})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != TierHiRes {
		t.Errorf("obtained tier = %d, want %d", got, TierHiRes)
	}
	if len(writer.attempts) != 1 {
		t.Errorf("attempts = %v, want a single attempt", writer.attempts)
	}
}

func TestFetchWithoutFallback(t *testing.T) {
	writer := &recordingWriter{available: map[Tier]bool{TierMP3: true}}
	fetcher := &Fetcher{Writer: writer, Fallback: false}

	_, err := fetcher.Fetch(context.Background(), Task{Quality: TierHiRes96})
	if !errors.Is(err, catalog.ErrUnstreamable) {
		t.Fatalf("err = %v, want ErrUnstreamable", err)
	}
	if len(writer.attempts) != 1 {
		t.Errorf("attempts = %v, want only the requested tier", writer.attempts)
	}
}

func TestFetchNetworkErrorIsTerminal(t *testing.T) {
	netErr := &catalog.NetworkError{Op: "download", Err: errors.New("connection reset")}
	writer := &recordingWriter{fail: netErr}
	fetcher := &Fetcher{Writer: writer, Fallback: true}

	_, err := fetcher.Fetch(context.Background(), Task{Quality: TierHiRes96})
	if !catalog.IsNetworkError(err) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if len(writer.attempts) != 1 {
		t.Errorf("attempts = %v, network failures must not retry lower tiers", writer.attempts)
	}
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	writer := &recordingWriter{}
	fetcher := &Fetcher{Writer: writer, Fallback: true}

	_, err := fetcher.Fetch(ctx, Task{Quality: TierCD})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(writer.attempts) != 0 {
		t.Errorf("attempts = %v, want none after cancellation", writer.attempts)
	}
}

func TestParseTier(t *testing.T) {
	for _, raw := range []int{5, 6, 7, 27} {
		tier, err := ParseTier(raw)
		if err != nil {
			t.Errorf("ParseTier(%d): %v", raw, err)
		}
		if int(tier) != raw {
			t.Errorf("ParseTier(%d) = %d", raw, tier)
		}
	}
	if _, err := ParseTier(8); err == nil {
		t.Error("ParseTier(8) should fail")
	}
}
