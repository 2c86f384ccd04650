package callbacks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		name string
		args []string
	}{
		{"main_menu", "main_menu", []string{}},
		{"category:kitchen", "category", []string{"kitchen"}},
		{"products:sofa_ru:2", "products", []string{"sofa_ru", "2"}},
		{"admin:lead:17:closed", "admin", []string{"lead", "17", "closed"}},
		{"\forder|42", "order", []string{"42"}},
		{"\fmain_menu|", "main_menu", []string{}},
		{"", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			a := Parse(tc.in)
			assert.Equal(t, tc.name, a.Name)
			assert.Equal(t, tc.args, a.Args)
		})
	}
}

func TestBuildRoundTrip(t *testing.T) {
	data := Build("products", "kitchen_corner", 3)
	assert.Equal(t, "products:kitchen_corner:3", data)

	a := Parse(data)
	assert.Equal(t, data, a.String())
	assert.Equal(t, 3, a.IntOr(1, 1))
}

func TestFits(t *testing.T) {
	assert.True(t, Fits(Build("products", "kitchen_corner", 12)))
	assert.False(t, Fits(Build("category", strings.Repeat("x", 70))))
}

func TestArguments(t *testing.T) {
	a := Parse("order:42")
	id, err := a.Int64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = a.Int64(1)
	assert.Error(t, err)

	_, err = Parse("order:abc").Int64(0)
	assert.Error(t, err)

	assert.Equal(t, 1, Parse("products:sofa").IntOr(1, 1))
	assert.Equal(t, 1, Parse("products:sofa:x").IntOr(1, 1))
	assert.Equal(t, "", a.Arg(5))
}
