package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/littlequestion/littlequestion/internal/model"
)

// seedEntry is one phrase in a seed file.
type seedEntry struct {
	Date     string `yaml:"date"`
	Text     string `yaml:"text"`
	Language string `yaml:"language"`
}

// ErrEmptySeed is returned for a seed file without entries.
var ErrEmptySeed = errors.New("seed file has no phrases")

// ParseSeed reads a YAML list of {date, text, language} entries.
// Every entry is validated before anything is returned; all problems are
// reported together.
func ParseSeed(r io.Reader) ([]*model.Phrase, error) {
	var entries []seedEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySeed
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptySeed
	}

	var errs []error
	seen := make(map[string]int, len(entries))
	phrases := make([]*model.Phrase, 0, len(entries))

	for i, e := range entries {
		n := i + 1
		day, err := model.ParseDay(strings.TrimSpace(e.Date))
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: invalid date %q", n, e.Date))
			continue
		}
		key := model.FormatDay(day)
		if first, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: date %s already used by entry %d", n, key, first))
			continue
		}
		seen[key] = n

		text := strings.TrimSpace(e.Text)
		if text == "" {
			errs = append(errs, fmt.Errorf("entry %d (%s): text is empty", n, key))
			continue
		}

		lang := strings.TrimSpace(e.Language)
		if lang == "" {
			lang = model.DefaultLanguage
		}

		phrases = append(phrases, &model.Phrase{Text: text, Date: day, Language: lang})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return phrases, nil
}
