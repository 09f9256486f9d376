package config

// Selectors is the table of CSS selectors the extractor and the pagination
// driver query. Every entry can be overridden from the config file.
type Selectors struct {
	ProductTitle         string `mapstructure:"product_title"`
	ProductPriceWhole    string `mapstructure:"product_price_whole"`
	ProductPriceFraction string `mapstructure:"product_price_fraction"`
	ProductPriceLegacy   string `mapstructure:"product_price_legacy"`
	SeeMoreReviews       string `mapstructure:"see_more_reviews"`
	ReviewContainer      string `mapstructure:"review_container"`
	ReviewText           string `mapstructure:"review_text"`
	ReviewRating         string `mapstructure:"review_rating"`
	RatingLabel          string `mapstructure:"rating_label"`
	ReviewerName         string `mapstructure:"reviewer_name"`
	ReviewImage          string `mapstructure:"review_image"`
	NextPage             string `mapstructure:"next_page"`
	DisabledClass        string `mapstructure:"disabled_class"`
}

// DefaultSelectors returns the selector table for Amazon product and review pages
func DefaultSelectors() Selectors {
	return Selectors{
		ProductTitle:         "#productTitle",
		ProductPriceWhole:    "#corePriceDisplay_desktop_feature_div .a-price-whole",
		ProductPriceFraction: "#corePriceDisplay_desktop_feature_div .a-price-fraction",
		ProductPriceLegacy:   "#priceblock_ourprice",
		SeeMoreReviews:       "#reviews-medley-footer a",
		ReviewContainer:      `[data-hook="review"]`,
		ReviewText:           ".review-text-content",
		ReviewRating:         ".review-rating",
		RatingLabel:          ".a-icon-alt",
		ReviewerName:         ".a-profile-name",
		ReviewImage:          `[data-hook="review-image-tile"]`,
		NextPage:             "#cm_cr-pagination_bar > ul > li.a-last > a",
		DisabledClass:        "a-disabled",
	}
}

// merge fills empty entries of s from d
func (s Selectors) merge(d Selectors) Selectors {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Selectors{
		ProductTitle:         pick(s.ProductTitle, d.ProductTitle),
		ProductPriceWhole:    pick(s.ProductPriceWhole, d.ProductPriceWhole),
		ProductPriceFraction: pick(s.ProductPriceFraction, d.ProductPriceFraction),
		ProductPriceLegacy:   pick(s.ProductPriceLegacy, d.ProductPriceLegacy),
		SeeMoreReviews:       pick(s.SeeMoreReviews, d.SeeMoreReviews),
		ReviewContainer:      pick(s.ReviewContainer, d.ReviewContainer),
		ReviewText:           pick(s.ReviewText, d.ReviewText),
		ReviewRating:         pick(s.ReviewRating, d.ReviewRating),
		RatingLabel:          pick(s.RatingLabel, d.RatingLabel),
		ReviewerName:         pick(s.ReviewerName, d.ReviewerName),
		ReviewImage:          pick(s.ReviewImage, d.ReviewImage),
		NextPage:             pick(s.NextPage, d.NextPage),
		DisabledClass:        pick(s.DisabledClass, d.DisabledClass),
	}
}

// all returns every selector keyed by its config name, for validation
func (s Selectors) all() map[string]string {
	return map[string]string{
		"product_title":          s.ProductTitle,
		"product_price_whole":    s.ProductPriceWhole,
		"product_price_fraction": s.ProductPriceFraction,
		"product_price_legacy":   s.ProductPriceLegacy,
		"see_more_reviews":       s.SeeMoreReviews,
		"review_container":       s.ReviewContainer,
		"review_text":            s.ReviewText,
		"review_rating":          s.ReviewRating,
		"rating_label":           s.RatingLabel,
		"reviewer_name":          s.ReviewerName,
		"review_image":           s.ReviewImage,
		"next_page":              s.NextPage,
	}
}
