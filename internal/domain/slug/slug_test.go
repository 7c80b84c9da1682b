package slug

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Tacones Altos":          "tacones-altos",
		"  Zapatillas   Running ": "zapatillas-running",
		"Botas & Botines!":       "botas-botines",
		"Mocasín de Cuero":       "mocasn-de-cuero",
		"a -- b":                 "a-b",
		"Talla_42":               "talla_42",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}

func TestMake_Idempotent(t *testing.T) {
	for _, in := range []string{"Tacones Altos", "Botas & Botines!", "x  y"} {
		once := Make(in)
		assert.Equal(t, once, Make(once))
	}
}

func TestUnique_Collision(t *testing.T) {
	taken := map[string]bool{}
	exists := func(_ context.Context, c string) (bool, error) { return taken[c], nil }

	first, err := Unique(context.Background(), "Tacones Altos", exists)
	require.NoError(t, err)
	assert.Equal(t, "tacones-altos", first)
	taken[first] = true

	second, err := Unique(context.Background(), "Tacones Altos", exists)
	require.NoError(t, err)
	assert.Equal(t, "tacones-altos-1", second)
	taken[second] = true

	third, err := Unique(context.Background(), "Tacones Altos", exists)
	require.NoError(t, err)
	assert.Equal(t, "tacones-altos-2", third)
}

func TestUnique_Empty(t *testing.T) {
	exists := func(_ context.Context, _ string) (bool, error) { return false, nil }

	_, err := Unique(context.Background(), "  !!! ", exists)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestUnique_LookupError(t *testing.T) {
	boom := errors.New("db down")
	exists := func(_ context.Context, _ string) (bool, error) { return false, boom }

	_, err := Unique(context.Background(), "Botas", exists)
	assert.ErrorIs(t, err, boom)
}

func TestSKU(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	assert.Equal(t, "botas-chelsea-42-0-1700000000000", SKU("botas-chelsea", "42", 0, now))
	assert.Equal(t, "botas-chelsea-425-1-1700000000000", SKU("botas-chelsea", "42.5", 1, now))
}

func TestUnique_LongNameStaysWithinColumn(t *testing.T) {
	name := strings.Repeat("a", 255)
	exists := func(_ context.Context, c string) (bool, error) { return c == name, nil }

	got, err := Unique(context.Background(), name, exists)
	require.NoError(t, err)
	assert.Len(t, got, MaxLen)
	assert.True(t, strings.HasSuffix(got, "-1"))
}

func TestSKU_LongSlugIsClipped(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	long := strings.Repeat("b", 250) + "-" + strings.Repeat("c", 4)

	got := SKU(long, strings.Repeat("9", 20), 3, now)
	assert.LessOrEqual(t, len(got), MaxLen)
	assert.True(t, strings.HasSuffix(got, "-"+strings.Repeat("9", 20)+"-3-1700000000000"))
	assert.NotContains(t, got, "--")
}
