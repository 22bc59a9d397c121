package config

import (
	"os"
	"path/filepath"
)

// Paths derives the on-disk layout under DataDir. All other packages go
// through this catalog instead of joining path fragments themselves.
type Paths struct {
	root string
}

// NewPaths returns the path catalog rooted at dataDir.
func NewPaths(dataDir string) *Paths {
	return &Paths{root: dataDir}
}

// ExamsDir holds the exam definition YAML files.
func (p *Paths) ExamsDir() string {
	return filepath.Join(p.root, "exams")
}

// AudioCacheDir is the static root served over HTTP.
func (p *Paths) AudioCacheDir() string {
	return filepath.Join(p.root, "audio_cache")
}

// TTSCacheDir holds content-addressed synthesized prompts.
func (p *Paths) TTSCacheDir() string {
	return filepath.Join(p.AudioCacheDir(), "tts")
}

// StudentAnswersDir holds recorded student answers, one subdirectory
// per session.
func (p *Paths) StudentAnswersDir() string {
	return filepath.Join(p.AudioCacheDir(), "student_answers")
}

// EnsureAll creates every directory the service writes to.
func (p *Paths) EnsureAll() error {
	for _, dir := range []string{
		p.ExamsDir(),
		p.TTSCacheDir(),
		p.StudentAnswersDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
