package filter

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// GenreLookup resolves the genre of a video.
type GenreLookup interface {
	Genre(ctx context.Context, videoID string) (string, error)
}

// GenreConfig represents the configuration for GenreFilter.
type GenreConfig struct {
	Contains string `yaml:"contains" mapstructure:"contains" default:"Music" validate:"required"`
}

// GenreFilter accepts only candidates whose genre contains the configured text.
type GenreFilter struct {
	genres GenreLookup
	config *GenreConfig
}

// NewGenreFilter creates a new genre filter.
func NewGenreFilter(genres GenreLookup) *GenreFilter {
	return &GenreFilter{genres: genres}
}

func (f *GenreFilter) Name() string {
	return "genre_filter"
}

func (f *GenreFilter) Description() string {
	return "Rejects tracks whose metadata genre is not music"
}

func (f *GenreFilter) ReturnCodes() []string {
	return []string{"genre_mismatch"}
}

func (f *GenreFilter) ValidateConfig(settings map[string]any) error {
	var config GenreConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = &config
	zlog.Info().Msgf("genre filter config: %+v", config)
	return nil
}

func (f *GenreFilter) Check(ctx context.Context, c Candidate, excluded ExcludedSet) (Result, error) {
	if f.genres == nil {
		return Result{}, errors.New("genre lookup not configured")
	}
	want := "Music"
	if f.config != nil {
		want = f.config.Contains
	}

	genre, err := f.genres.Genre(ctx, c.ID)
	if err != nil {
		return Result{}, err
	}
	if !strings.Contains(genre, want) {
		return Reject("genre_mismatch"), nil
	}
	return Accept(), nil
}

func init() {
	Register("genre_filter", func() Filter {
		return &GenreFilter{}
	})
}
