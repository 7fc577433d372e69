package phrase

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSide_String(t *testing.T) {
	tests := []struct {
		side Side
		want string
	}{
		{Input, "input"},
		{Output, "output"},
		{Side(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.side.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.side, got, tt.want)
		}
	}
}

func TestSide_Other(t *testing.T) {
	assert.Equal(t, Output, Input.Other())
	assert.Equal(t, Input, Output.Other())
}

func TestParseSide(t *testing.T) {
	s, ok := ParseSide("output")
	assert.True(t, ok)
	assert.Equal(t, Output, s)

	_, ok = ParseSide("recall")
	assert.False(t, ok)
}

func TestPhrase_Accessors(t *testing.T) {
	p := Phrase{
		Input:       "good morning",
		Translated:  "buenos días",
		InputLang:   "en-US",
		OutputLang:  "es-ES",
		InputVoice:  "en-a",
		OutputVoice: "es-b",
		InputAudio:  &Audio{URL: "in.mp3", Duration: time.Second},
	}

	assert.Equal(t, "good morning", p.Text(Input))
	assert.Equal(t, "buenos días", p.Text(Output))
	assert.Equal(t, "es-ES", p.Lang(Output))
	assert.Equal(t, "en-a", p.Voice(Input))
	assert.Equal(t, "in.mp3", p.AudioURL(Input))
	assert.Equal(t, "", p.AudioURL(Output))
	assert.Equal(t, time.Second, p.AudioDuration(Input))
	assert.Zero(t, p.AudioDuration(Output))
}

func TestPhrase_WithAudio_DoesNotMutateOriginal(t *testing.T) {
	p := Phrase{Input: "hi", InputAudio: &Audio{URL: "old.mp3"}}

	q := p.WithAudio(Input, Audio{URL: "new.mp3", Duration: 2 * time.Second})

	assert.Equal(t, "old.mp3", p.AudioURL(Input))
	assert.Equal(t, "new.mp3", q.AudioURL(Input))
	assert.Equal(t, 2*time.Second, q.AudioDuration(Input))
}

const sampleCollection = `
id = "greetings"
name = "Greetings"

[[phrases]]
input = "hello"
translated = "hola"
input_lang = "en"
output_lang = "es"
input_audio = "clips/hello.mp3"
input_duration = 1.5
output_audio = "https://cdn.example.com/hola.mp3"
output_duration = 2

[[phrases]]
input = "thanks"
translated = "gracias"
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greetings.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCollection), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "greetings", c.ID)
	assert.Equal(t, "collection", c.ItemType)
	require.Len(t, c.Phrases, 2)

	first := c.Phrases[0]
	assert.Equal(t, filepath.Join(dir, "clips", "hello.mp3"), first.AudioURL(Input))
	assert.Equal(t, 1500*time.Millisecond, first.AudioDuration(Input))
	assert.Equal(t, "https://cdn.example.com/hola.mp3", first.AudioURL(Output))
	assert.Equal(t, 2*time.Second, first.AudioDuration(Output))

	assert.Nil(t, c.Phrases[1].InputAudio)
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(path, []byte(`name = "nothing"`), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrEmptyCollection)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	orig := &Collection{
		ID:       "c1",
		Name:     "Travel",
		ItemType: "collection",
		Phrases: []Phrase{
			{
				Input:       "where is the station",
				Translated:  "wo ist der Bahnhof",
				OutputLang:  "de",
				OutputAudio: &Audio{URL: "/tmp/out.mp3", Duration: 3 * time.Second},
			},
		},
	}

	require.NoError(t, Save(path, orig))
	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Travel", got.Name)
	require.Len(t, got.Phrases, 1)
	assert.Equal(t, "wo ist der Bahnhof", got.Phrases[0].Translated)
	assert.Equal(t, "/tmp/out.mp3", got.Phrases[0].AudioURL(Output))
	assert.Equal(t, 3*time.Second, got.Phrases[0].AudioDuration(Output))
	assert.Nil(t, got.Phrases[0].InputAudio)
}
