package models

import (
	"errors"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

type ProductFilters struct {
	Name string
	SKU  string
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) FindFiltered(offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.Model(&Product{})

	// Filter
	if filters.Name != "" {
		query = query.Where("products.name ILIKE ?", "%"+filters.Name+"%")
	}
	if filters.SKU != "" {
		query = query.Where("products.sku ILIKE ?", "%"+filters.SKU+"%")
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductsRepository) FindByID(id uint) (*Product, error) {
	var product Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

func (r *ProductsRepository) Create(product *Product) error {
	return r.db.Create(product).Error
}

// Update applies the given column values to an existing product.
func (r *ProductsRepository) Update(id uint, fields map[string]any) (*Product, error) {
	product, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(product).Updates(fields).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductsRepository) Delete(id uint) error {
	res := r.db.Delete(&Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
