// Package catalog turns loosely typed product rows from the static file, the
// postgres catalog or the hosted REST API into domain products, and serves the
// storefront's catalog reads from an in-memory snapshot.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/pkg/slug"
)

// RawRecord is one product as a source delivered it, before normalization.
type RawRecord map[string]any

// ErrMalformedRecord is wrapped when a field has a type Normalize cannot use.
var ErrMalformedRecord = errors.New("malformed catalog record")

var textPolicy = bluemonday.StrictPolicy()

// Normalize converts raw into a validated product. It accepts the hosted
// database shape (short_description, in_stock, categories{name},
// product_images[{image_url, display_order}], product_materials[{material_name}])
// and the flat camelCase shape (shortDescription, inStock, category, images,
// materials).
func Normalize(raw RawRecord) (domain.Product, error) {
	r := reader{raw: raw}

	p := domain.Product{
		ID:               r.id(),
		Name:             r.text("name"),
		ShortDescription: r.text("short_description", "shortDescription"),
		Description:      r.text("description"),
		Category:         r.category(),
		Era:              r.text("era"),
		Origin:           r.text("origin"),
		Materials:        r.materials(),
		Dimensions:       r.text("dimensions"),
		Condition:        r.text("condition"),
		Images:           r.images(),
		Featured:         r.boolean("featured"),
		InStock:          r.boolean("in_stock", "inStock"),
		Price:            r.price(),
		CreatedAt:        r.timestamp("created_at", "createdAt"),
	}
	p.Slug = r.text("slug")
	if p.Slug == "" {
		p.Slug = slug.Generate(p.Name)
	}

	if err := errors.Join(r.errs...); err != nil {
		return domain.Product{}, fmt.Errorf("%w %q: %w", ErrMalformedRecord, p.ID, err)
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// reader collects type errors while pulling fields so one bad record reports
// everything wrong with it at once.
type reader struct {
	raw  RawRecord
	errs []error
}

func (r *reader) lookup(keys ...string) (string, any) {
	for _, k := range keys {
		if v, ok := r.raw[k]; ok && v != nil {
			return k, v
		}
	}
	return keys[0], nil
}

func (r *reader) fail(key string, v any) {
	r.errs = append(r.errs, fmt.Errorf("field %s: unexpected %T", key, v))
}

func (r *reader) id() string {
	key, v := r.lookup("id")
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		r.fail(key, v)
		return ""
	}
}

func (r *reader) text(keys ...string) string {
	key, v := r.lookup(keys...)
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, v)
		return ""
	}
	return clean(s)
}

func (r *reader) boolean(keys ...string) bool {
	key, v := r.lookup(keys...)
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			r.fail(key, v)
		}
		return parsed
	default:
		r.fail(key, v)
		return false
	}
}

func (r *reader) price() decimal.Decimal {
	key, v := r.lookup("price")
	if v == nil {
		r.errs = append(r.errs, fmt.Errorf("field %s: required", key))
		return decimal.Zero
	}
	d, err := toDecimal(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("field %s: %w", key, err))
	}
	return d
}

func (r *reader) timestamp(keys ...string) time.Time {
	key, v := r.lookup(keys...)
	switch t := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return t.UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("field %s: %w", key, err))
		}
		return parsed.UTC()
	default:
		r.fail(key, v)
		return time.Time{}
	}
}

func (r *reader) category() string {
	if key, v := r.lookup("categories"); v != nil {
		m, ok := v.(map[string]any)
		if !ok {
			r.fail(key, v)
			return ""
		}
		name, _ := m["name"].(string)
		return clean(name)
	}
	return r.text("category")
}

func (r *reader) materials() []string {
	if key, v := r.lookup("product_materials"); v != nil {
		items, ok := v.([]any)
		if !ok {
			r.fail(key, v)
			return nil
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				r.fail(key, it)
				continue
			}
			if name, _ := m["material_name"].(string); clean(name) != "" {
				out = append(out, clean(name))
			}
		}
		return out
	}
	return r.strings("materials", clean)
}

type orderedImage struct {
	url   string
	order decimal.Decimal
}

func (r *reader) images() []string {
	key, v := r.lookup("product_images")
	if v == nil {
		return r.strings("images", strings.TrimSpace)
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(key, v)
		return nil
	}

	imgs := make([]orderedImage, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			r.fail(key, it)
			continue
		}
		url, _ := m["image_url"].(string)
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		order, err := toDecimal(m["display_order"])
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("field %s.display_order: %w", key, err))
		}
		imgs = append(imgs, orderedImage{url: url, order: order})
	}
	sort.SliceStable(imgs, func(i, j int) bool {
		return imgs[i].order.LessThan(imgs[j].order)
	})

	out := make([]string, len(imgs))
	for i, img := range imgs {
		out[i] = img.url
	}
	return out
}

func (r *reader) strings(key string, conv func(string) string) []string {
	_, v := r.lookup(key)
	if v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(key, v)
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			r.fail(key, it)
			continue
		}
		if s = conv(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// toDecimal accepts JSON numbers, YAML ints and floats, and numeric strings.
// A missing value is zero.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected %T", v)
	}
}

// clean strips markup and decodes the entities the sanitizer leaves behind.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
