package srd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dizmorall/srdhub/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, models.PageKinds, c.Kinds())
	assert.True(t, c.Has(models.KindSpell, "fireball"))
	assert.True(t, c.Has(models.KindSpell, "  Lightning-Bolt "))
	assert.False(t, c.Has(models.KindSpell, "goblin"))
	assert.False(t, c.Has(models.KindMonster, "fireball"))

	spells := c.List(models.KindSpell)
	require.NotEmpty(t, spells)
	for i := 1; i < len(spells); i++ {
		assert.Less(t, spells[i-1].Slug, spells[i].Slug)
	}
}

func TestLoadRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"unknown kind", `{"feat": [{"slug": "alert"}]}`},
		{"empty slug", `{"spell": [{"slug": " "}]}`},
		{"duplicate slug", `{"spell": [{"slug": "shield"}, {"slug": "Shield"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestGetNormalizesSlug(t *testing.T) {
	c, err := Load([]byte(`{"monster": [{"slug": "Owlbear", "name": "Owlbear"}]}`))
	require.NoError(t, err)

	p, ok := c.Get(models.KindMonster, "OWLBEAR")
	require.True(t, ok)
	assert.Equal(t, "owlbear", p.Slug)
	assert.Equal(t, models.KindMonster, p.Kind)
	assert.Empty(t, c.List(models.KindSpell))
}
