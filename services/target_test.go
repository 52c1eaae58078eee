package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dizmorall/srdhub/internal/testutils"
	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/srd"
)

func TestResolve(t *testing.T) {
	db := testutils.SetupTestDB(t)
	author := testutils.CreateTestUser(db)
	post := testutils.CreateTestPost(db, author.ID)
	resolver := NewTargetResolver(db, srd.Default())
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    string
		ref     string
		want    models.Target
		wantErr bool
	}{
		{"existing post", "post", fmt.Sprint(post.ID), models.PostTarget(post.ID), false},
		{"missing post", "post", "99999", models.Target{}, true},
		{"post id zero", "post", "0", models.Target{}, true},
		{"post id not a number", "post", "abc", models.Target{}, true},
		{"spell", "spell", "fireball", models.PageTarget(models.KindSpell, "fireball"), false},
		{"slug is normalized", "Monster", " Owlbear ", models.PageTarget(models.KindMonster, "owlbear"), false},
		{"class", "class", "wizard", models.PageTarget(models.KindClass, "wizard"), false},
		{"species", "species", "dwarf", models.PageTarget(models.KindSpecies, "dwarf"), false},
		{"unknown slug", "spell", "not-a-spell", models.Target{}, true},
		{"slug of another kind", "class", "fireball", models.Target{}, true},
		{"unknown kind", "feat", "alert", models.Target{}, true},
		{"empty slug", "spell", "", models.Target{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(ctx, tt.kind, tt.ref)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}
