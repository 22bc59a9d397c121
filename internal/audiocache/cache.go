// Package audiocache stores synthesized speech on disk, addressed by
// the content that produced it. Identical (model, text, voice) triples
// always map to the same file; entries are written once and never
// mutated, so cached paths can be served with immutable caching.
package audiocache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/echoexam/echo-backend/internal/metrics"
)

// Synthesizer is the speech collaborator boundary consumed by the cache.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Cache is the content-addressed speech store. Concurrent first-time
// requests for one key are collapsed into a single synthesis call; the
// filesystem check makes repeat requests cheap.
type Cache struct {
	dir       string
	urlPrefix string
	model     string
	synth     Synthesizer
	group     singleflight.Group
	log       zerolog.Logger
}

// NewCache creates a Cache writing files into dir and returning public
// paths under urlPrefix.
func NewCache(dir, urlPrefix, model string, synth Synthesizer, log zerolog.Logger) *Cache {
	return &Cache{
		dir:       dir,
		urlPrefix: urlPrefix,
		model:     model,
		synth:     synth,
		log:       log.With().Str("component", "audio_cache").Logger(),
	}
}

// key derives the content address from everything that shapes the
// produced audio: the synthesis model, the exact text, and the voice.
func (c *Cache) key(text, voice string) string {
	sum := md5.Sum([]byte(c.model + "|" + text + "|" + voice))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.dir, key+".mp3")
}

func (c *Cache) publicPath(key string) string {
	return path.Join(c.urlPrefix, key+".mp3")
}

// Ensure returns the public path for the given text+voice, synthesizing
// and persisting it on first use. Safe for concurrent use; calls with
// the same key synthesize at most once.
func (c *Cache) Ensure(ctx context.Context, text, voice string) (string, error) {
	key := c.key(text, voice)
	file := c.filePath(key)

	if _, err := os.Stat(file); err == nil {
		metrics.TTSCacheLookups.WithLabelValues("hit").Inc()
		return c.publicPath(key), nil
	}
	metrics.TTSCacheLookups.WithLabelValues("miss").Inc()

	_, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another goroutine may have finished the write between the
		// stat above and joining this flight.
		if _, err := os.Stat(file); err == nil {
			return nil, nil
		}

		audio, err := c.synth.Synthesize(ctx, text, voice)
		if err != nil {
			metrics.TTSFailures.Inc()
			return nil, fmt.Errorf("synthesize audio: %w", err)
		}
		if err := os.WriteFile(file, audio, 0o644); err != nil {
			return nil, fmt.Errorf("persist audio asset: %w", err)
		}

		if seconds := probeDurationSeconds(file); seconds > 0 {
			metrics.TTSSynthesizedSeconds.Add(seconds)
			c.log.Info().
				Str("key", key).
				Int("bytes", len(audio)).
				Float64("seconds", seconds).
				Msg("Synthesized audio asset")
		} else {
			c.log.Info().
				Str("key", key).
				Int("bytes", len(audio)).
				Msg("Synthesized audio asset")
		}
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return c.publicPath(key), nil
}
