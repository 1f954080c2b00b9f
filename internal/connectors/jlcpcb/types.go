package jlcpcb

import "github.com/shopspring/decimal"

// searchRequest is the body of the component list endpoint.
type searchRequest struct {
	Keyword     string `json:"keyword"`
	CurrentPage int    `json:"currentPage,omitempty"`
	PageSize    int    `json:"pageSize,omitempty"`
}

// searchResponse is the envelope returned by the component list endpoint.
// Code is 200 on success; anything else is an application-level failure.
type searchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		ComponentPageInfo struct {
			Total int         `json:"total"`
			List  []component `json:"list"`
		} `json:"componentPageInfo"`
	} `json:"data"`
}

// component is one candidate match.
type component struct {
	ComponentCode          string       `json:"componentCode"`
	ComponentModelEn       string       `json:"componentModelEn"`
	ComponentBrandEn       string       `json:"componentBrandEn"`
	ComponentSpecification string       `json:"componentSpecificationEn"`
	Describe               string       `json:"describe"`
	StockCount             int          `json:"stockCount"`
	ComponentPrices        []priceEntry `json:"componentPrices"`
	DataManualURL          string       `json:"dataManualUrl"`
	LCSCGoodsURL           string       `json:"lcscGoodsUrl"`
	MinImageAccessID       string       `json:"minImageAccessId"`
	ComponentLibraryType   string       `json:"componentLibraryType"`
}

// priceEntry is one quantity break. EndNumber is -1 for the open tier.
type priceEntry struct {
	StartNumber  int             `json:"startNumber"`
	EndNumber    int             `json:"endNumber"`
	ProductPrice decimal.Decimal `json:"productPrice"`
}
