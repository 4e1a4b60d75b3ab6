package queries

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListFilter is one of the tabs of the order list.
type ListFilter string

const (
	FilterAll          ListFilter = "all"
	FilterDay          ListFilter = "day"
	FilterMonth        ListFilter = "month"
	FilterPending      ListFilter = "pending"
	FilterInSeparation ListFilter = "in_separation"
	FilterShipped      ListFilter = "shipped"
	FilterDelivered    ListFilter = "delivered"
	FilterCancelled    ListFilter = "cancelled"
)

// AllListFilters lists the accepted filter names.
func AllListFilters() []ListFilter {
	return []ListFilter{
		FilterAll, FilterDay, FilterMonth, FilterPending,
		FilterInSeparation, FilterShipped, FilterDelivered, FilterCancelled,
	}
}

// ListOrdersQuery lists orders for one filter tab, optionally narrowed by a
// free-text search over order id and customer name.
type ListOrdersQuery struct {
	filter ListFilter
	search string
	guard  guard.ConstructorGuard
}

// NewListOrdersQuery accepts an empty filter as FilterAll.
func NewListOrdersQuery(filter string, search string) (ListOrdersQuery, error) {
	f := ListFilter(strings.ToLower(strings.TrimSpace(filter)))
	if f == "" {
		f = FilterAll
	}

	valid := false
	for _, known := range AllListFilters() {
		if f == known {
			valid = true
			break
		}
	}
	if !valid {
		return ListOrdersQuery{}, errs.NewValueIsInvalidErrorWithCause(
			"filter", fmt.Errorf("%q is not a known filter", filter))
	}

	return ListOrdersQuery{
		filter: f,
		search: strings.TrimSpace(search),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Filter() ListFilter {
	return q.filter
}

func (q ListOrdersQuery) Search() string {
	return q.search
}
