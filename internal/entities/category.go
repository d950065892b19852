package entities

import "parkslot/internal/utils"

type Category string

const (
	CategoryVIP       Category = "vip"
	CategoryExecutive Category = "executive"
	CategoryNormal    Category = "normal"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryVIP, CategoryExecutive, CategoryNormal}

// ParseCategory accepts a category name in any case, surrounded by whitespace or not.
func ParseCategory(name string) (Category, bool) {
	c := Category(utils.NormalizeName(name))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Label is the heading used on the status page.
func (c Category) Label() string {
	switch c {
	case CategoryVIP:
		return "VIP"
	case CategoryExecutive:
		return "Executive"
	case CategoryNormal:
		return "Normal"
	}
	return string(c)
}
