package receipt

import (
	"fmt"
	"sort"
	"time"
)

const (
	topItemsLimit      = 10
	topCategoriesLimit = 5
	monthlyWindow      = 12
)

// AnalyticsResult is the ranked summary of the full receipt corpus. It is
// recomputed from the live store on every call and never persisted.
type AnalyticsResult struct {
	TotalReceipts   int             `json:"totalReceipts"`
	TotalSpent      float64         `json:"totalSpent"`
	TopItems        []ItemCount     `json:"topItems"`
	TopCategories   []CategoryTotal `json:"topCategories"`
	MonthlySpending []MonthlyTotal  `json:"monthlySpending"`
}

// ItemCount is an aggregated purchase count for one normalized item name
type ItemCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CategoryTotal is the accumulated spend under one category tag
type CategoryTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// MonthlyTotal is the accumulated spend for one YYYY-MM calendar month
type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// ComputeAnalytics reduces every stored receipt into ranked summaries. A
// store read failure fails the whole call; there are no partial results.
func (s *Service) ComputeAnalytics() (*AnalyticsResult, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("reading receipts: %w", err)
	}

	result := &AnalyticsResult{
		TopItems:        []ItemCount{},
		TopCategories:   []CategoryTotal{},
		MonthlySpending: []MonthlyTotal{},
	}
	if len(receipts) == 0 {
		return result, nil
	}

	result.TotalReceipts = len(receipts)

	itemCounts := make(map[string]int)
	categoryTotals := make(map[string]float64)
	monthlyTotals := make(map[string]float64)

	for _, receipt := range receipts {
		// A nil total counts as zero here; validation already kept nil
		// totals out of new receipts.
		var total float64
		if receipt.Total != nil {
			total = *receipt.Total
		}
		result.TotalSpent += total

		for _, item := range receipt.Items {
			name := item.GeneralName
			if name == "" {
				name = item.Description
			}
			if name == "" {
				name = "Unknown"
			}
			qty := item.Qty
			if qty < 1 {
				qty = 1
			}
			itemCounts[name] += qty

			tags := item.Tags
			if len(tags) == 0 {
				tags = []string{"other"}
			}
			// Full price under every tag; a multi-tagged item is not split.
			for _, tag := range tags {
				categoryTotals[tag] += item.Price
			}
		}

		if _, err := time.Parse("2006-01-02", receipt.Date); err == nil {
			monthlyTotals[receipt.Date[:7]] += total
		}
	}

	for name, quantity := range itemCounts {
		result.TopItems = append(result.TopItems, ItemCount{Name: name, Quantity: quantity})
	}
	// Ties break on name ascending so repeated runs rank identically
	sort.Slice(result.TopItems, func(i, j int) bool {
		a, b := result.TopItems[i], result.TopItems[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(result.TopItems) > topItemsLimit {
		result.TopItems = result.TopItems[:topItemsLimit]
	}

	for name, total := range categoryTotals {
		result.TopCategories = append(result.TopCategories, CategoryTotal{Name: name, Total: total})
	}
	sort.Slice(result.TopCategories, func(i, j int) bool {
		a, b := result.TopCategories[i], result.TopCategories[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Name < b.Name
	})
	if len(result.TopCategories) > topCategoriesLimit {
		result.TopCategories = result.TopCategories[:topCategoriesLimit]
	}

	for month, total := range monthlyTotals {
		result.MonthlySpending = append(result.MonthlySpending, MonthlyTotal{Month: month, Total: total})
	}
	sort.Slice(result.MonthlySpending, func(i, j int) bool {
		return result.MonthlySpending[i].Month < result.MonthlySpending[j].Month
	})
	// Most recent 12 calendar months present in the data, not wall-clock months
	if len(result.MonthlySpending) > monthlyWindow {
		result.MonthlySpending = result.MonthlySpending[len(result.MonthlySpending)-monthlyWindow:]
	}

	return result, nil
}
