package payload_test

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/torosent/packetfire/internal/payload"
)

func TestGenerateLength(t *testing.T) {
	rng := payload.NewRand(0)
	for _, size := range []int{1, 10, 25, 512, 1472, 65507} {
		buf := payload.Generate(size, rng)
		if len(buf) != size {
			t.Fatalf("Generate(%d) len = %d", size, len(buf))
		}
	}
}

func TestGenerateZeroSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		buf := payload.Generate(size, payload.NewRand(0))
		if buf == nil || len(buf) != 0 {
			t.Fatalf("Generate(%d) = %v, want empty non-nil buffer", size, buf)
		}
	}
}

func TestGenerateRequiresGenerator(t *testing.T) {
	if buf := payload.Generate(0, nil); len(buf) != 0 {
		t.Fatalf("Generate(0, nil) = %v, want empty", buf)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("Generate(8, nil) did not panic; a missing generator must not be replaced silently")
		}
	}()
	payload.Generate(8, nil)
}

func TestGenerateUsesCharsetOnly(t *testing.T) {
	rng := payload.NewRand(7)
	seen := make(map[byte]bool)
	for i := 0; i < 200; i++ {
		for _, b := range payload.Generate(256, rng) {
			if strings.IndexByte(payload.Charset, b) < 0 {
				t.Fatalf("byte %q outside charset", b)
			}
			seen[b] = true
		}
	}
	// 51200 draws over 72 symbols should hit every one of them.
	if len(seen) != len(payload.Charset) {
		t.Fatalf("saw %d distinct symbols, want %d", len(seen), len(payload.Charset))
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	a := payload.Generate(64, rand.New(rand.NewPCG(1, 2)))
	b := payload.Generate(64, rand.New(rand.NewPCG(1, 2)))
	if !bytes.Equal(a, b) {
		t.Fatalf("same seed produced different payloads: %q vs %q", a, b)
	}
}

func TestNewRandIndependentPerWorker(t *testing.T) {
	const workers = 16
	out := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = payload.Generate(32, payload.NewRand(i))
		}()
	}
	wg.Wait()

	seen := make(map[string]int)
	for i, buf := range out {
		if j, ok := seen[string(buf)]; ok {
			t.Fatalf("workers %d and %d produced identical payloads", j, i)
		}
		seen[string(buf)] = i
	}
}
