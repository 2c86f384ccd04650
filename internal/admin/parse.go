package admin

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/furnibot/internal/catalog"
)

// MinBlockLines is the number of mandatory lines in a product block.
const MinBlockLines = 5

var (
	ErrMalformedBlock = errors.New("admin: product block needs at least 5 lines")
	ErrUsage          = errors.New("admin: wrong command usage")
)

// FieldError reports one invalid line of an admin input.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("admin: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *FieldError) Code() string { return "INVALID_FIELD" }

var fieldLabels = map[string]string{
	"title":       "название",
	"category":    "категория",
	"country":     "страна",
	"price":       "цена",
	"description": "описание",
	"photo":       "фото",
	"name":        "название",
	"slug":        "slug",
}

// Message is the localized form shown to the admin.
func (e *FieldError) Message() string {
	label := fieldLabels[e.Field]
	if label == "" {
		label = e.Field
	}
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", label, e.Reason)
	}
	return fmt.Sprintf("%s «%s»: %s", label, e.Value, e.Reason)
}

// ProductBlock is a parsed admin product submission.
type ProductBlock struct {
	Title        string
	CategorySlug string
	Country      string
	Price        decimal.Decimal
	Description  string
	PhotoURL     string
}

// ParseProductBlock reads the line format
//
//	title
//	category slug
//	country
//	price
//	description
//	photo URL (optional)
//
// Blank lines are ignored.
func ParseProductBlock(text string) (ProductBlock, error) {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < MinBlockLines {
		return ProductBlock{}, ErrMalformedBlock
	}

	b := ProductBlock{
		Title:        lines[0],
		CategorySlug: strings.ToLower(lines[1]),
		Country:      strings.ToUpper(lines[2]),
		Description:  lines[4],
	}
	if len([]rune(b.Title)) > 255 {
		return ProductBlock{}, &FieldError{Field: "title", Reason: "длиннее 255 символов"}
	}
	if !catalog.ValidSlug(b.CategorySlug) {
		return ProductBlock{}, &FieldError{Field: "category", Value: lines[1], Reason: "ожидается slug категории, например kitchen"}
	}

	price, err := parsePrice(lines[3])
	if err != nil {
		return ProductBlock{}, &FieldError{Field: "price", Value: lines[3], Reason: err.Error()}
	}
	b.Price = price

	if len(lines) > MinBlockLines {
		u, err := url.Parse(lines[5])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ProductBlock{}, &FieldError{Field: "photo", Value: lines[5], Reason: "ожидается ссылка http(s)"}
		}
		b.PhotoURL = u.String()
	}
	return b, nil
}

// parsePrice accepts "74990", "74 990" and "74990,50".
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".", "₽", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errors.New("не является числом")
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errors.New("не может быть отрицательной")
	}
	if d.GreaterThanOrEqual(decimal.New(1, 8)) {
		return decimal.Decimal{}, errors.New("слишком большая")
	}
	return d.Round(2), nil
}

// CategoryArgs is the payload of /addcategory: "Name | slug | parent_slug".
type CategoryArgs struct {
	Name       string
	Slug       string
	ParentSlug string
}

// ParseCategoryArgs splits the /addcategory payload. Slug and parent are optional.
func ParseCategoryArgs(payload string) (CategoryArgs, error) {
	parts := strings.Split(payload, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var a CategoryArgs
	a.Name = parts[0]
	if a.Name == "" {
		return CategoryArgs{}, &FieldError{Field: "name", Reason: "не указано"}
	}
	if len(parts) > 1 {
		a.Slug = strings.ToLower(parts[1])
	}
	if len(parts) > 2 {
		a.ParentSlug = strings.ToLower(parts[2])
	}
	if len(parts) > 3 {
		return CategoryArgs{}, ErrUsage
	}
	if a.Slug == "" {
		a.Slug = catalog.MakeSlug(a.Name)
	}
	if !catalog.ValidSlug(a.Slug) {
		return CategoryArgs{}, &FieldError{Field: "slug", Value: a.Slug, Reason: "допустимы a-z, 0-9, _ и -"}
	}
	return a, nil
}
