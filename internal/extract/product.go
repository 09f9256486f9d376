package extract

import (
	"strings"

	"github.com/law-makers/revscrape/internal/dom"
	"github.com/law-makers/revscrape/pkg/models"
)

var thousandsSeparators = strings.NewReplacer(".", "", ",", "", " ", "", "\u00a0", "")

// Product captures title and price from a product page
func (e *Extractor) Product(root dom.Node, sourceURL string) models.ProductInfo {
	return models.ProductInfo{
		Title:     orDefault(findText(root, e.sel.ProductTitle), models.NotAvailable),
		Price:     orDefault(e.price(root), models.NotAvailable),
		SourceURL: sourceURL,
	}
}

// price joins the whole and fraction parts with a decimal point, prefixed by
// the currency symbol element that precedes the whole part. The legacy single
// price block is used when either part is missing.
func (e *Extractor) price(root dom.Node) *string {
	whole, okWhole := root.Find(e.sel.ProductPriceWhole)
	fraction, okFraction := root.Find(e.sel.ProductPriceFraction)
	if okWhole && okFraction {
		symbol := ""
		if prev, ok := whole.PrevElement(); ok {
			symbol = prev.Text()
		}
		amount := thousandsSeparators.Replace(whole.Text())
		p := symbol + amount + "." + fraction.Text()
		return &p
	}
	return findText(root, e.sel.ProductPriceLegacy)
}
