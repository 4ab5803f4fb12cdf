package storefront

import (
	"net/url"
	"strings"
)

type PageKind string

const (
	PageUnknown  PageKind = "unknown"
	PageProduct  PageKind = "product"
	PageCart     PageKind = "cart"
	PageCheckout PageKind = "checkout"
)

// PageSignals are the observable hints about the current storefront page
type PageSignals struct {
	URL         string
	FormActions []string // action attributes of the page's forms
	HasCartForm bool
	ProductJSON bool // ShopifyAnalytics.meta.product was injected
}

// DetectPage classifies a page by URL path first, then by forms, then by injected product JSON
func DetectPage(sig PageSignals) PageKind {
	if kind := kindFromPath(sig.URL); kind != PageUnknown {
		return kind
	}
	for _, action := range sig.FormActions {
		if strings.Contains(action, "/cart/add") {
			return PageProduct
		}
	}
	if sig.HasCartForm {
		return PageCart
	}
	if sig.ProductJSON {
		return PageProduct
	}
	return PageUnknown
}

func kindFromPath(raw string) PageKind {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}
	segments := strings.Split(strings.Trim(strings.ToLower(path), "/"), "/")

	for _, seg := range segments {
		if seg == "checkout" || seg == "checkouts" {
			return PageCheckout
		}
	}
	for _, seg := range segments {
		if seg == "cart" {
			return PageCart
		}
	}
	for i, seg := range segments {
		if seg == "products" && i+1 < len(segments) && segments[i+1] != "" {
			return PageProduct
		}
	}
	return PageUnknown
}
