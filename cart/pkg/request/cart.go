package request

type AddItem struct {
	ProductID string `validate:"required,notblank" json:"productId"`
}

// UpdateQuantity sets a line's quantity. Zero removes the line.
type UpdateQuantity struct {
	Quantity *int `validate:"required,gte=0,max=2147483647" json:"quantity"`
}

type BuyNow struct {
	ProductID string `validate:"required,notblank" json:"productId"`
}
