package audiocache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type stubSynth struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (s *stubSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail {
		return nil, errors.New("synthesis backend down")
	}
	return []byte("audio:" + text + ":" + voice), nil
}

func (s *stubSynth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestCache(t *testing.T, synth Synthesizer) *Cache {
	t.Helper()
	return NewCache(t.TempDir(), "/audio_cache/tts", "qwen3-omni-flash", synth, zerolog.Nop())
}

func TestEnsureSynthesizesOncePerKey(t *testing.T) {
	synth := &stubSynth{}
	cache := newTestCache(t, synth)
	ctx := context.Background()

	first, err := cache.Ensure(ctx, "Read the sentence.", "Cherry")
	if err != nil {
		t.Fatalf("Ensure() returned error: %v", err)
	}
	second, err := cache.Ensure(ctx, "Read the sentence.", "Cherry")
	if err != nil {
		t.Fatalf("repeat Ensure() returned error: %v", err)
	}

	if first != second {
		t.Errorf("same inputs produced different paths: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "/audio_cache/tts/") || !strings.HasSuffix(first, ".mp3") {
		t.Errorf("unexpected public path %q", first)
	}
	if got := synth.callCount(); got != 1 {
		t.Errorf("synthesizer called %d times, want 1", got)
	}
}

func TestEnsureDistinguishesKeys(t *testing.T) {
	synth := &stubSynth{}
	cache := newTestCache(t, synth)
	ctx := context.Background()

	byText, err := cache.Ensure(ctx, "Sentence one.", "Cherry")
	if err != nil {
		t.Fatal(err)
	}
	byVoice, err := cache.Ensure(ctx, "Sentence one.", "Ethan")
	if err != nil {
		t.Fatal(err)
	}

	if byText == byVoice {
		t.Error("different voices mapped to the same asset")
	}
	if got := synth.callCount(); got != 2 {
		t.Errorf("synthesizer called %d times, want 2", got)
	}
}

func TestEnsureCollapsesConcurrentCalls(t *testing.T) {
	synth := &stubSynth{}
	cache := newTestCache(t, synth)

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := cache.Ensure(context.Background(), "Shared text.", "Cherry")
			if err != nil {
				t.Errorf("concurrent Ensure() failed: %v", err)
				return
			}
			paths[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range paths[1:] {
		if p != paths[0] {
			t.Fatalf("concurrent calls returned different paths: %q vs %q", p, paths[0])
		}
	}
	if got := synth.callCount(); got != 1 {
		t.Errorf("synthesizer called %d times under concurrency, want 1", got)
	}
}

func TestEnsureFailureLeavesNoEntry(t *testing.T) {
	synth := &stubSynth{fail: true}
	cache := newTestCache(t, synth)

	if _, err := cache.Ensure(context.Background(), "Doomed.", "Cherry"); err == nil {
		t.Fatal("Ensure() succeeded although synthesis failed")
	}

	// A later attempt must retry instead of serving a broken entry.
	synth.fail = false
	p, err := cache.Ensure(context.Background(), "Doomed.", "Cherry")
	if err != nil {
		t.Fatalf("retry after failure returned error: %v", err)
	}
	if p == "" {
		t.Error("retry returned an empty path")
	}
	if got := synth.callCount(); got != 2 {
		t.Errorf("synthesizer called %d times, want 2 (fail + retry)", got)
	}
}

func TestAnswerStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewAnswerStore(dir, "/audio_cache/student_answers")

	public, err := store.Save("7b0c", "q1", []byte("recording"))
	if err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if !strings.HasPrefix(public, "/audio_cache/student_answers/7b0c/q1_") {
		t.Errorf("unexpected public path %q", public)
	}
	if !strings.HasSuffix(public, ".mp3") {
		t.Errorf("public path %q should end in .mp3", public)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "7b0c"))
	if err != nil {
		t.Fatalf("session directory missing: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files, want 1", len(entries))
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"q1", "q1"},
		{"q 1/../x", "q-1----x"},
		{"", "answer"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
