// Package examdef loads and validates exam definition files.
//
// Exam files are YAML documents with a single top-level exam mapping.
// Decoding is strict: unknown fields are rejected so a typo in an exam
// file fails loudly at load time instead of silently dropping content.
package examdef

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/echoexam/echo-backend/internal/model"
)

const (
	minTimeLimit = 5
	maxTimeLimit = 300
)

// ErrExamNotFound is returned when the named exam file does not exist.
var ErrExamNotFound = errors.New("exam file not found")

// ValidationError collects every problem found in one exam file. Exam
// files are authored by hand, so reporting all problems at once beats
// fixing them one reload at a time.
type ValidationError struct {
	File     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("exam file %s: %s", e.File, strings.Join(e.Problems, "; "))
}

type fileDoc struct {
	Exam *model.ExamDefinition `yaml:"exam"`
}

// Loader reads exam definitions from a directory.
type Loader struct {
	dir string
	log zerolog.Logger
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string, log zerolog.Logger) *Loader {
	return &Loader{
		dir: dir,
		log: log.With().Str("component", "examdef").Logger(),
	}
}

// Load reads, decodes, and validates a single exam file by name. The
// name must be a bare filename inside the exams directory.
func (l *Loader) Load(filename string) (*model.ExamDefinition, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(l.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrExamNotFound, filename)
		}
		return nil, fmt.Errorf("open exam file: %w", err)
	}
	defer f.Close()

	exam, err := decode(f, filename)
	if err != nil {
		return nil, err
	}
	if err := validate(exam, filename); err != nil {
		return nil, err
	}
	applyDefaults(exam)
	return exam, nil
}

// List scans the exams directory. Files that fail to load are logged
// and skipped so one broken file cannot hide the rest of the catalog.
func (l *Loader) List() ([]model.ExamInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read exams directory: %w", err)
	}

	infos := make([]model.ExamInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isExamFile(entry.Name()) {
			continue
		}
		exam, err := l.Load(entry.Name())
		if err != nil {
			l.log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unloadable exam file")
			continue
		}
		infos = append(infos, model.ExamInfo{
			Filename:      entry.Name(),
			Title:         exam.Title,
			Description:   exam.Description,
			QuestionCount: len(exam.Questions),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Filename < infos[j].Filename })
	return infos, nil
}

func isExamFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// checkFilename rejects names that could escape the exams directory.
func checkFilename(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %s", ErrExamNotFound, name)
	}
	if !isExamFile(name) {
		return fmt.Errorf("%w: %s", ErrExamNotFound, name)
	}
	return nil
}

func decode(r io.Reader, filename string) (*model.ExamDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{File: filename, Problems: []string{fmt.Sprintf("invalid YAML: %v", err)}}
	}
	if doc.Exam == nil {
		return nil, &ValidationError{File: filename, Problems: []string{"missing top-level \"exam\" mapping"}}
	}

	// A second YAML document would be silently ignored otherwise.
	var extra fileDoc
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{File: filename, Problems: []string{"exam files must contain exactly one document"}}
	}
	return doc.Exam, nil
}

func validate(exam *model.ExamDefinition, filename string) error {
	var problems []string

	if strings.TrimSpace(exam.Title) == "" {
		problems = append(problems, "title must not be empty")
	}
	if len(exam.Questions) == 0 {
		problems = append(problems, "at least one question is required")
	}

	for t, instruction := range exam.SectionInstructions {
		if _, err := model.ParseQuestionType(string(t)); err != nil {
			problems = append(problems, fmt.Sprintf("sectionInstructions: %v", err))
		}
		if instruction == nil || strings.TrimSpace(instruction.Text) == "" {
			problems = append(problems, fmt.Sprintf("sectionInstructions.%s: text must not be empty", t))
		}
	}

	seen := make(map[string]struct{}, len(exam.Questions))
	for i, q := range exam.Questions {
		where := fmt.Sprintf("questions[%d]", i)

		if strings.TrimSpace(q.ID) == "" {
			problems = append(problems, where+": id must not be empty")
		} else if _, dup := seen[q.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id %q", where, q.ID))
		} else {
			seen[q.ID] = struct{}{}
		}

		if _, err := model.ParseQuestionType(string(q.Type)); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", where, err))
		}
		if strings.TrimSpace(q.Text) == "" {
			problems = append(problems, where+": text must not be empty")
		}
		if q.Type == model.QuestionTypeMultipleChoice {
			if len(q.Options) < 2 {
				problems = append(problems, where+": multiple_choice needs at least 2 options")
			}
			if strings.TrimSpace(q.ReferenceAnswer) == "" {
				problems = append(problems, where+": multiple_choice needs a referenceAnswer")
			}
		}
		if q.TimeLimit != 0 && (q.TimeLimit < minTimeLimit || q.TimeLimit > maxTimeLimit) {
			problems = append(problems, fmt.Sprintf("%s: timeLimit must be between %d and %d seconds", where, minTimeLimit, maxTimeLimit))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{File: filename, Problems: problems}
	}
	return nil
}

// applyDefaults fills omitted time limits with the per-type default.
func applyDefaults(exam *model.ExamDefinition) {
	for i := range exam.Questions {
		if exam.Questions[i].TimeLimit == 0 {
			exam.Questions[i].TimeLimit = exam.Questions[i].Type.DefaultTimeLimit()
		}
	}
}
