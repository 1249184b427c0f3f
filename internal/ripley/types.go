package ripley

// Raw catalog API response types (internal)

type catalogResponse struct {
	Products   []rawProduct  `json:"products"`
	Pagination rawPagination `json:"pagination"`
}

type rawPagination struct {
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
	PageSize     int `json:"pageSize"`
}

type rawProduct struct {
	PartNumber           string    `json:"partNumber"`
	Name                 string    `json:"name"`
	Manufacturer         string    `json:"manufacturer"`
	URL                  string    `json:"url"`
	FullImage            string    `json:"fullImage"`
	Prices               rawPrices `json:"prices"`
	IsMarketplaceProduct bool      `json:"isMarketplaceProduct"`
	IsUnavailable        bool      `json:"isUnavailable"`
	IsOutOfStock         bool      `json:"isOutOfStock"`
}

type rawPrices struct {
	ListPrice          *float64 `json:"listPrice"`
	OfferPrice         *float64 `json:"offerPrice"`
	CardPrice          *float64 `json:"cardPrice"`
	DiscountPercentage *float64 `json:"discountPercentage"`
	Discount           *float64 `json:"discount"`
	RipleyPuntos       *float64 `json:"ripleyPuntos"`
}
