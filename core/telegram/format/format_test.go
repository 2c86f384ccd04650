package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStylers(t *testing.T) {
	assert.Equal(t, "<b>Диван &lt;Nova&gt;</b>", For("HTML").Bold("Диван <Nova>"))
	assert.Equal(t, "*snake\\_case*", For("Markdown").Bold("snake_case"))
	assert.Equal(t, `74 990\.00 ₽ \(скидка\)`, For("MarkdownV2").Escape("74 990.00 ₽ (скидка)"))
	assert.IsType(t, HTML{}, For("unknown"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Кухонный гарнитур...", Truncate("Кухонный гарнитур Nova", 17, "..."))
	assert.Equal(t, "Шкаф", Truncate("Шкаф", 30, "..."))
	assert.Equal(t, "abc", Truncate("abc", -1, "..."))
}
