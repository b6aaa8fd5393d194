package entity

// ProductPreview is the product snapshot shown on a product conversation.
type ProductPreview struct {
	ProductID ID     `json:"product_id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
}
