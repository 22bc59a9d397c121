// Command examlint validates exam definition files without starting the
// server. It loads each file through the same loader session creation
// uses, so a file that lints clean here will load in production.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/examdef"
)

func main() {
	var dir string
	flag.StringVar(&dir, "dir", "./data/exams", "Path to the exam definitions directory")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		found, err := examFiles(dir)
		if err != nil {
			log.Fatalf("Cannot read %s: %v", dir, err)
		}
		files = found
	}
	if len(files) == 0 {
		fmt.Printf("No exam files found in %s\n", dir)
		return
	}

	loader := examdef.NewLoader(dir, zerolog.Nop())

	failed := 0
	for _, name := range files {
		exam, err := loader.Load(name)
		if err != nil {
			failed++
			var verr *examdef.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("FAIL %s\n", name)
				for _, problem := range verr.Problems {
					fmt.Printf("  - %s\n", problem)
				}
			} else {
				fmt.Printf("FAIL %s\n  - %v\n", name, err)
			}
			continue
		}
		fmt.Printf("ok   %s (%q, %d questions)\n", name, exam.Title, len(exam.Questions))
	}

	fmt.Printf("\n%d file(s) checked, %d failed\n", len(files), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// examFiles lists YAML files in dir, in name order.
func examFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
