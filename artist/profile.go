// Package artist defines the structured output of a research run: an
// ArtistProfile with key biographical and musical information. The
// profile schema is published to the model as format instructions and
// extracted answers are validated against it before callers see them.
package artist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/hupe1980/archivist/internal/util"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Profile represents an electronic-music artist with key biographical
// and musical information. All fields except Name are optional; the
// model fills in what its research supports.
type Profile struct {
	Name             string            `json:"name" description:"The full name of the artist."`
	Aliases          []string          `json:"aliases,omitempty" description:"Other names or aliases used by the artist."`
	BirthDate        string            `json:"birth_date,omitempty" description:"The birth date of the artist."`
	BirthPlace       string            `json:"birth_place,omitempty" description:"The city and country where the artist was born."`
	ActiveYears      string            `json:"active_years,omitempty" description:"The period during which the artist has been active."`
	NotableTracks    []string          `json:"notable_tracks,omitempty" description:"A list of influential tracks by the artist."`
	AssociatedLabels []string          `json:"associated_labels,omitempty" description:"Record labels the artist has been associated with."`
	Influences       []string          `json:"influences,omitempty" description:"Artists or genres that influenced the artist's style."`
	KnownFor         string            `json:"known_for,omitempty" description:"What the artist is most known for or their signature style."`
	BiographySummary string            `json:"biography_summary,omitempty" description:"A brief summary of the artist's biography."`
	Genres           []string          `json:"genres,omitempty" description:"Main electronic music genres the artist is associated with."`
	Website          string            `json:"website,omitempty" description:"Official website or prominent online profile URL."`
	SocialMedia      map[string]string `json:"social_media,omitempty" description:"Social media platforms mapped to their URLs."`
	Awards           []string          `json:"awards,omitempty" description:"Notable awards or recognitions received by the artist."`
	Collaborations   []string          `json:"collaborations,omitempty" description:"Key artists or producers the artist has collaborated with."`
	Legacy           string            `json:"legacy,omitempty" description:"A description of the artist's lasting impact on electronic music."`
}

// Schema returns the JSON schema describing a Profile, derived once from
// the struct via reflection.
func Schema() map[string]any {
	return util.CreateSchema(Profile{})
}

// FormatInstructions renders the schema as output format instructions
// appended to the system prompt.
func FormatInstructions() string {
	raw, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		// The schema is built from a static struct; marshal cannot fail
		// at runtime unless the struct itself is broken.
		panic(fmt.Sprintf("artist: failed to marshal schema: %v", err))
	}

	return "Your final answer MUST be a JSON object conforming to the following schema, " +
		"wrapped in a ```json code fence:\n" + string(raw)
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON pulls the JSON object out of a final answer. Fenced blocks
// take precedence; a bare object is accepted as-is.
func ExtractJSON(answer string) (string, error) {
	if m := fencedJSON.FindStringSubmatch(answer); m != nil {
		return m[1], nil
	}

	trimmed := strings.TrimSpace(answer)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, nil
	}

	return "", fmt.Errorf("answer does not contain a JSON object")
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(Schema())
		if err != nil {
			compileErr = fmt.Errorf("failed to marshal schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("failed to load schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("artist-profile.json", doc); err != nil {
			compileErr = fmt.Errorf("failed to register schema: %w", err)
			return
		}

		compiled, compileErr = compiler.Compile("artist-profile.json")
	})

	return compiled, compileErr
}

// Parse extracts, schema-validates and decodes a Profile from a final
// answer.
func Parse(answer string) (*Profile, error) {
	raw, err := ExtractJSON(answer)
	if err != nil {
		return nil, err
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("extracted block is not valid JSON: %w", err)
	}

	if err := sch.Validate(instance); err != nil {
		return nil, fmt.Errorf("profile does not conform to schema: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	return &profile, nil
}
