package audiocache

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// AnswerStore persists student answer recordings, one directory per
// session. Unlike TTS assets these are originals that cannot be
// re-derived, so they are named by question and capture time rather
// than content-addressed.
type AnswerStore struct {
	dir       string
	urlPrefix string
}

// NewAnswerStore creates an AnswerStore writing under dir and returning
// public paths under urlPrefix.
func NewAnswerStore(dir, urlPrefix string) *AnswerStore {
	return &AnswerStore{dir: dir, urlPrefix: urlPrefix}
}

// Save writes one recording and returns its public path.
func (a *AnswerStore) Save(sessionID, questionID string, audio []byte) (string, error) {
	sessionDir := filepath.Join(a.dir, sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return "", fmt.Errorf("create answer directory: %w", err)
	}

	name := fmt.Sprintf("%s_%d.mp3", sanitizeName(questionID), time.Now().Unix())
	if err := os.WriteFile(filepath.Join(sessionDir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("persist student audio: %w", err)
	}
	return path.Join(a.urlPrefix, sessionID, name), nil
}

// sanitizeName keeps question ids filesystem-safe. Exam files are
// authored by hand and ids end up in file names.
func sanitizeName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "answer"
	}
	return b.String()
}
