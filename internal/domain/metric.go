package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMetric is returned for a metric name outside the fixed set.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrUnknownSortCriterion is returned for a sort criterion outside the fixed set.
	ErrUnknownSortCriterion = errors.New("unknown sort criterion")
)

// Metric names a per-record value that can be charted.
type Metric string

const (
	MetricUnitPrice     Metric = "unitPrice"
	MetricSalePrice     Metric = "salePrice"
	MetricLeasePrice    Metric = "leasePrice"
	MetricGapPrice      Metric = "gapPrice"
	MetricDeviationRate Metric = "deviationRate"
	MetricUnitCount     Metric = "unitCount"
)

// ChartMetrics are the metrics charted for a selection by default, in display order.
var ChartMetrics = []Metric{MetricUnitPrice, MetricSalePrice, MetricLeasePrice, MetricGapPrice}

// AllMetrics lists every chartable metric.
var AllMetrics = []Metric{
	MetricUnitPrice, MetricSalePrice, MetricLeasePrice,
	MetricGapPrice, MetricDeviationRate, MetricUnitCount,
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	for _, m := range AllMetrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// SortCriterion orders the latest-snapshot listing.
type SortCriterion string

const (
	SortByUnitPrice SortCriterion = "unitPrice"
	SortByName      SortCriterion = "name"
	SortByGapPrice  SortCriterion = "gapPrice"
	SortByUnitCount SortCriterion = "unitCount"
)

// SortCriteria lists the criteria in the order they are offered.
var SortCriteria = []SortCriterion{SortByUnitPrice, SortByName, SortByGapPrice, SortByUnitCount}

// ParseSortCriterion validates a sort criterion name.
func ParseSortCriterion(s string) (SortCriterion, error) {
	for _, c := range SortCriteria {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortCriterion, s)
}
