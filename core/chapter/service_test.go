package chapter_test

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/storage/database/inmem"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := chapter.NewService(inmemdb.NewChapterRepository(inmemdb.Open()))

	ch, err := svc.Create(ctx, chapter.NewChapter{Name: "  Arequipa "})
	require.NoError(t, err)
	assert.Equal(t, "Arequipa", ch.Name)
	assert.True(t, core.IsValidID(ch.ID))

	_, err = svc.Create(ctx, chapter.NewChapter{Name: "arequipa"})
	assert.Equal(t, chapter.ErrNameExists, err)

	got, err := svc.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch, got)

	_, err = svc.GetByID(ctx, core.NewID())
	assert.Equal(t, chapter.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc := chapter.NewService(inmemdb.NewChapterRepository(inmemdb.Open()))
	for _, name := range []string{"Trujillo", "Arequipa", "Lima"} {
		_, err := svc.Create(ctx, chapter.NewChapter{Name: name})
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{"default by name", nil, []string{"Arequipa", "Lima", "Trujillo"}},
		{"name desc", []core.DBOrdering{{Field: "name"}}, []string{"Trujillo", "Lima", "Arequipa"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chapters, err := svc.Query(ctx, tc.ordering)
			require.NoError(t, err)
			names := make([]string, 0, len(chapters))
			for _, ch := range chapters {
				names = append(names, ch.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}

func TestNewChapter_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, mustTranslator(t))

	nc := chapter.NewChapter{Name: "   "}
	assert.Error(t, nc.Validate(validate))

	nc = chapter.NewChapter{Name: " Piura "}
	require.NoError(t, nc.Validate(validate))
	assert.Equal(t, "Piura", nc.Name)
}

func mustTranslator(t *testing.T) *ut.UniversalTranslator {
	t.Helper()
	uni, err := core.NewUniversalTranslator(core.LocaleES)
	require.NoError(t, err)
	return uni
}
