package catalog

import "github.com/chazu/memorial/pkg/placement"

// Catalog is the typed, mapped view of a full set of catalog records.
type Catalog struct {
	Products  []Product  `json:"products"`
	Shapes    []Shape    `json:"shapes"`
	Materials []Material `json:"materials"`
	Borders   []Border   `json:"borders"`
	Motifs    []Motif    `json:"motifs"`
	Additions []Addition `json:"additions"`
	Fonts     []Font     `json:"fonts"`
	// Skipped counts records that could not be mapped.
	Skipped int `json:"skipped"`
}

// Build maps every record into the catalog, counting unmapped ones.
func Build(records []Record) *Catalog {
	c := &Catalog{}
	for _, r := range records {
		opt, ok := MapRecord(r)
		if !ok {
			c.Skipped++
			continue
		}
		switch o := opt.(type) {
		case Product:
			c.Products = append(c.Products, o)
		case Shape:
			c.Shapes = append(c.Shapes, o)
		case Material:
			c.Materials = append(c.Materials, o)
		case Border:
			c.Borders = append(c.Borders, o)
		case Motif:
			c.Motifs = append(c.Motifs, o)
		case Addition:
			c.Additions = append(c.Additions, o)
		case Font:
			c.Fonts = append(c.Fonts, o)
		}
	}
	return c
}

// ResolveBySlug returns the first entry in items whose id, slug or display
// name matches slug after normalization with Slugify. It never panics; a miss
// returns the zero value and false.
func ResolveBySlug[T Option](items []T, slug string) (T, bool) {
	var zero T
	want := Slugify(slug)
	if want == "" {
		return zero, false
	}
	for _, item := range items {
		e := item.CatalogEntry()
		if Slugify(e.ID) == want || Slugify(e.Slug) == want || Slugify(e.Name) == want {
			return item, true
		}
	}
	return zero, false
}

// Lookup resolves slug within the named category and returns its Entry.
func (c *Catalog) Lookup(cat Category, slug string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	switch cat {
	case CategoryProduct:
		return lookupEntry(c.Products, slug)
	case CategoryShape:
		return lookupEntry(c.Shapes, slug)
	case CategoryMaterial:
		return lookupEntry(c.Materials, slug)
	case CategoryBorder:
		return lookupEntry(c.Borders, slug)
	case CategoryMotif:
		return lookupEntry(c.Motifs, slug)
	case CategoryAddition:
		return lookupEntry(c.Additions, slug)
	case CategoryFont:
		return lookupEntry(c.Fonts, slug)
	}
	return Entry{}, false
}

func lookupEntry[T Option](items []T, slug string) (Entry, bool) {
	o, ok := ResolveBySlug(items, slug)
	if !ok {
		return Entry{}, false
	}
	return o.CatalogEntry(), true
}

// Product returns the product with the given id or slug.
func (c *Catalog) Product(ref string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	return ResolveBySlug(c.Products, ref)
}

// Addition returns the addition with the given id or slug.
func (c *Catalog) Addition(ref string) (Addition, bool) {
	if c == nil {
		return Addition{}, false
	}
	return ResolveBySlug(c.Additions, ref)
}

// Motif returns the motif with the given id or slug.
func (c *Catalog) Motif(ref string) (Motif, bool) {
	if c == nil {
		return Motif{}, false
	}
	return ResolveBySlug(c.Motifs, ref)
}

// Footprint returns the catalog size of an addition or motif at scale 1.
// ok is false when the entry is unknown or carries no size.
func (c *Catalog) Footprint(k placement.Kind, ref string) (widthMm, heightMm float64, ok bool) {
	switch k {
	case placement.KindAddition:
		if a, found := c.Addition(ref); found {
			widthMm, heightMm = a.WidthMm, a.HeightMm
		}
	case placement.KindMotif:
		if m, found := c.Motif(ref); found {
			widthMm, heightMm = m.WidthMm, m.HeightMm
		}
	}
	return widthMm, heightMm, widthMm > 0 && heightMm > 0
}
