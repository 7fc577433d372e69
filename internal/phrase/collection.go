package phrase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrEmptyCollection is returned when a collection file has no phrases.
var ErrEmptyCollection = errors.New("collection has no phrases")

// Collection is a named list of phrases, as stored on disk.
type Collection struct {
	ID       string
	Name     string
	ItemType string
	Artwork  string
	Phrases  []Phrase
}

// fileCollection mirrors the TOML layout of a collection file.
type fileCollection struct {
	ID       string       `koanf:"id"`
	Name     string       `koanf:"name"`
	ItemType string       `koanf:"item_type"`
	Artwork  string       `koanf:"artwork"`
	Phrases  []filePhrase `koanf:"phrases"`
}

type filePhrase struct {
	Input        string  `koanf:"input"`
	Translated   string  `koanf:"translated"`
	Romanization string  `koanf:"romanization"`
	InputLang    string  `koanf:"input_lang"`
	OutputLang   string  `koanf:"output_lang"`
	InputVoice   string  `koanf:"input_voice"`
	OutputVoice  string  `koanf:"output_voice"`
	InputAudio   string  `koanf:"input_audio"`
	InputSecs    float64 `koanf:"input_duration"`
	OutputAudio  string  `koanf:"output_audio"`
	OutputSecs   float64 `koanf:"output_duration"`
}

// Load reads a collection from a TOML file. Relative audio paths are
// resolved against the file's directory.
func Load(path string) (*Collection, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("load collection %s: %w", path, err)
	}

	var fc fileCollection
	if err := k.Unmarshal("", &fc); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", path, err)
	}
	if len(fc.Phrases) == 0 {
		return nil, ErrEmptyCollection
	}

	c := &Collection{
		ID:       fc.ID,
		Name:     fc.Name,
		ItemType: fc.ItemType,
		Artwork:  fc.Artwork,
		Phrases:  make([]Phrase, len(fc.Phrases)),
	}
	if c.ID == "" {
		c.ID = filepath.Base(path)
	}
	if c.ItemType == "" {
		c.ItemType = "collection"
	}

	dir := filepath.Dir(path)
	for i, fp := range fc.Phrases {
		c.Phrases[i] = Phrase{
			Input:        fp.Input,
			Translated:   fp.Translated,
			Romanization: fp.Romanization,
			InputLang:    fp.InputLang,
			OutputLang:   fp.OutputLang,
			InputVoice:   fp.InputVoice,
			OutputVoice:  fp.OutputVoice,
			InputAudio:   audioRef(dir, fp.InputAudio, fp.InputSecs),
			OutputAudio:  audioRef(dir, fp.OutputAudio, fp.OutputSecs),
		}
	}
	return c, nil
}

func audioRef(dir, url string, secs float64) *Audio {
	if url == "" {
		return nil
	}
	if !isRemote(url) && !filepath.IsAbs(url) {
		url = filepath.Join(dir, url)
	}
	return &Audio{URL: url, Duration: time.Duration(secs * float64(time.Second))}
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Save writes a collection to a TOML file, replacing it atomically.
func Save(path string, c *Collection) error {
	phrases := make([]map[string]any, len(c.Phrases))
	for i, p := range c.Phrases {
		m := map[string]any{
			"input":      p.Input,
			"translated": p.Translated,
		}
		setIf(m, "romanization", p.Romanization)
		setIf(m, "input_lang", p.InputLang)
		setIf(m, "output_lang", p.OutputLang)
		setIf(m, "input_voice", p.InputVoice)
		setIf(m, "output_voice", p.OutputVoice)
		if a := p.InputAudio; a != nil {
			m["input_audio"] = a.URL
			m["input_duration"] = a.Duration.Seconds()
		}
		if a := p.OutputAudio; a != nil {
			m["output_audio"] = a.URL
			m["output_duration"] = a.Duration.Seconds()
		}
		phrases[i] = m
	}

	doc := map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"item_type": c.ItemType,
		"phrases":   phrases,
	}
	setIf(doc, "artwork", c.Artwork)

	data, err := toml.Parser().Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
