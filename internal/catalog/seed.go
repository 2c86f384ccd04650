package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/furnibot/core/logger"
)

type seedCategory struct {
	slug, name, parent string
	order              int
}

type seedProduct struct {
	category, productType string
	title, description    string
	price                 int64
	dimensions            string
}

var demoCategories = []seedCategory{
	{slug: "bedroom", name: "🛏️ Спальная мебель", order: 1},
	{slug: "kitchen", name: "🍳 Кухонная мебель", order: 2},
	{slug: "sofa", name: "🛋️ Мягкая мебель", order: 3},
	{slug: "tables", name: "📚 Столы и стулья", order: 4},
	{slug: "cabinets", name: "📺 Тумбы и комоды", order: 5},
	{slug: "mattresses", name: "🛏️ Матрасы", order: 6},
	{slug: "wardrobes", name: "🚪 Шкафы", order: 7},

	{slug: "bedroom_ru", name: "🇷🇺 Российские спальни", parent: "bedroom", order: 1},
	{slug: "bedroom_tr", name: "🇹🇷 Турецкие спальни", parent: "bedroom", order: 2},
	{slug: "kitchen_straight", name: "📐 Прямые кухни", parent: "kitchen", order: 1},
	{slug: "kitchen_corner", name: "🔽 Угловые кухни", parent: "kitchen", order: 2},
	{slug: "sofa_ru", name: "🇷🇺 Российские диваны", parent: "sofa", order: 1},
	{slug: "sofa_tr", name: "🇹🇷 Турецкие диваны", parent: "sofa", order: 2},
	{slug: "sofa_ru_straight", name: "📐 Прямые диваны", parent: "sofa_ru", order: 1},
	{slug: "sofa_ru_corner", name: "🔽 Угловые диваны", parent: "sofa_ru", order: 2},
}

var demoProductTypes = []NewProductType{
	{Name: "Прямая", Slug: "straight", Description: "Прямая форма"},
	{Name: "Угловая", Slug: "corner", Description: "Угловая форма"},
	{Name: "Российская", Slug: "russian", Description: "Российское производство"},
	{Name: "Турецкая", Slug: "turkish", Description: "Турецкое производство"},
}

var demoProducts = []seedProduct{
	{"kitchen_straight", "straight", "Кухонный гарнитур Nova", "Модульный кухонный гарнитур, фасады МДФ. Прямая форма, современный дизайн.", 74990, "300x60x90 см"},
	{"kitchen_corner", "corner", "Кухонный гарнитур Corner Pro", "Угловая кухня с максимальным использованием пространства.", 89990, "280x280x90 см"},
	{"sofa_ru_straight", "straight", "Диван Comfort Plus", "Прямой диван с ортопедическим матрасом, тканевая обивка.", 45990, "200x90x80 см"},
	{"sofa_ru_corner", "corner", "Угловой диван Family", "Угловой диван для большой семьи, механизм раскладывания.", 67990, "280x180x80 см"},
	{"bedroom_ru", "russian", "Кровать SoftSleep", "Двуспальная кровать с подъемным механизмом, ЛДСП.", 42990, "200x160x40 см"},
	{"wardrobes", "russian", "Шкаф-купе Classic", "Практичный шкаф-купе с зеркалом, ЛДСП, 3 двери.", 35990, "240x60x220 см"},
}

// SeedDemo fills an empty catalog with the demo tree, product types and
// products. A catalog that already has categories is left alone.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	s := NewStore(db)
	n, err := s.CountCategories(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.catalog",
			slog.String("status", logger.StatusSkip),
			slog.Int("categories", n),
		)
		return nil
	}

	ids := make(map[string]int64, len(demoCategories))
	for _, sc := range demoCategories {
		in := NewCategory{Name: sc.name, Slug: sc.slug, SortOrder: sc.order}
		if sc.parent != "" {
			parent, ok := ids[sc.parent]
			if !ok {
				return fmt.Errorf("seed: parent %q of %q not created", sc.parent, sc.slug)
			}
			in.ParentID = &parent
		}
		c, err := s.CreateCategory(ctx, in)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", sc.slug, err)
		}
		ids[c.Slug] = c.ID
	}

	types := make(map[string]int64, len(demoProductTypes))
	for _, in := range demoProductTypes {
		pt, err := s.CreateProductType(ctx, in)
		if err != nil {
			return fmt.Errorf("seed product type %s: %w", in.Slug, err)
		}
		types[pt.Slug] = pt.ID
	}

	for _, sp := range demoProducts {
		typeID := types[sp.productType]
		dims := sp.dimensions
		_, err := s.CreateProduct(ctx, NewProduct{
			CategoryID:    ids[sp.category],
			ProductTypeID: &typeID,
			Country:       "RU",
			Title:         sp.title,
			Description:   sp.description,
			Price:         decimal.NewNullDecimal(decimal.NewFromInt(sp.price)),
			Dimensions:    &dims,
		})
		if err != nil {
			return fmt.Errorf("seed product %q: %w", sp.title, err)
		}
	}

	logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.catalog",
		slog.String("status", logger.StatusOK),
		slog.Int("categories", len(demoCategories)),
		slog.Int("products", len(demoProducts)),
	)
	return nil
}
