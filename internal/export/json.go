package export

import (
	"encoding/json"

	"github.com/law-makers/revscrape/pkg/models"
)

// JSON pretty prints the result
func JSON(result *models.CrawlResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// ReadJSON decodes a result previously written by JSON
func ReadJSON(data []byte) (*models.CrawlResult, error) {
	var result models.CrawlResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if result.Reviews == nil {
		result.Reviews = []models.Review{}
	}
	result.TotalReviews = len(result.Reviews)
	return &result, nil
}
