package domain

// FilterBySupplier возвращает товары поставщика supplierID в исходном порядке.
// Для supplierID == 0 или при отсутствии совпадений возвращается пустой срез.
// Каждый вызов строит результат заново и не зависит от предыдущих.
func FilterBySupplier(supplierID int64, catalog []Product) []Product {
	result := make([]Product, 0)
	if supplierID == 0 {
		return result
	}
	for _, p := range catalog {
		if p.SupplierID == supplierID {
			result = append(result, p)
		}
	}
	return result
}

// FindProduct ищет товар по id.
func FindProduct(products []Product, id int64) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
