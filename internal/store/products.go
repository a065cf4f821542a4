package store

import (
	"database/sql"
	"errors"

	"github.com/vitrine-io/vitrine/internal/models"
)

// CreateCategory inserts a category.
func (s *Store) CreateCategory(name, slug string) (*models.Category, error) {
	c := &models.Category{ID: newID(), Name: name, Slug: slug}
	_, err := s.q.Exec(
		s.rebind("INSERT INTO categories (id, name, slug) VALUES (?, ?, ?)"),
		c.ID, c.Name, c.Slug,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateProduct inserts a product. categoryID may be empty.
func (s *Store) CreateProduct(name, slug, description, categoryID string) (*models.Product, error) {
	now := s.now()
	p := &models.Product{
		ID:          newID(),
		Name:        name,
		Slug:        slug,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var catID any
	if categoryID != "" {
		catID = categoryID
	}

	_, err := s.q.Exec(
		s.rebind("INSERT INTO products (id, category_id, name, slug, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		p.ID, catID, p.Name, p.Slug, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateVariant inserts a product variant.
func (s *Store) CreateVariant(productID string, v models.ProductVariant) (*models.ProductVariant, error) {
	v.ID = newID()
	_, err := s.q.Exec(
		s.rebind("INSERT INTO product_variants (id, product_id, name, slug, color, price_in_cents, image_key) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		v.ID, productID, v.Name, v.Slug, v.Color, v.PriceInCents, v.ImageKey,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListProducts returns products that have at least one variant, each with
// its category and variant summaries.
func (s *Store) ListProducts() ([]*models.Product, error) {
	rows, err := s.q.Query(
		`SELECT p.id, p.name, p.slug, p.description, p.created_at, p.updated_at,
			c.id, c.name, c.slug
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id)
		ORDER BY p.created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	byID := make(map[string]*models.Product)
	for rows.Next() {
		p := &models.Product{}
		var desc, catID, catName, catSlug sql.NullString
		err := rows.Scan(&p.ID, &p.Name, &p.Slug, &desc, &p.CreatedAt, &p.UpdatedAt,
			&catID, &catName, &catSlug)
		if err != nil {
			return nil, err
		}
		p.Description = desc.String
		if catID.Valid {
			p.Category = &models.Category{ID: catID.String, Name: catName.String, Slug: catSlug.String}
		}
		products = append(products, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachVariants(byID); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductBySlug returns a single product with category and variants.
func (s *Store) GetProductBySlug(slug string) (*models.Product, error) {
	p := &models.Product{}
	var desc, catID, catName, catSlug sql.NullString
	err := s.q.QueryRow(
		s.rebind(`SELECT p.id, p.name, p.slug, p.description, p.created_at, p.updated_at,
			c.id, c.name, c.slug
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = ?`),
		slug,
	).Scan(&p.ID, &p.Name, &p.Slug, &desc, &p.CreatedAt, &p.UpdatedAt, &catID, &catName, &catSlug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	if catID.Valid {
		p.Category = &models.Category{ID: catID.String, Name: catName.String, Slug: catSlug.String}
	}

	if err := s.attachVariants(map[string]*models.Product{p.ID: p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) attachVariants(byID map[string]*models.Product) error {
	if len(byID) == 0 {
		return nil
	}

	rows, err := s.q.Query(
		`SELECT product_id, id, name, slug, color, price_in_cents, image_key
		FROM product_variants ORDER BY slug`,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var color, imageKey sql.NullString
		v := models.ProductVariant{}
		if err := rows.Scan(&productID, &v.ID, &v.Name, &v.Slug, &color, &v.PriceInCents, &imageKey); err != nil {
			return err
		}
		v.Color = color.String
		v.ImageKey = imageKey.String
		if p, ok := byID[productID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}
	return rows.Err()
}
