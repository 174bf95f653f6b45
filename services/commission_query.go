package services

import (
	"strings"
	"time"

	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
)

// Named intervals
const (
	Interval24h = "24h"
	Interval7d  = "7d"
	Interval30d = "30d"
	Interval90d = "90d"
	Interval1y  = "1y"
	IntervalMTD = "mtd"
	IntervalQTD = "qtd"
	IntervalYTD = "ytd"
	IntervalAll = "all"
)

// AllTimeStart is where the "all" interval begins
var AllTimeStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// CommissionQuery is the query string of a commission request. Enum and
// paging rules are binding tags; dates are checked by ResolveInterval.
type CommissionQuery struct {
	ProgramID  string `form:"programId" binding:"required"`
	Status     string `form:"status" binding:"omitempty,oneof=pending processed paid refunded duplicate fraud canceled"`
	Type       string `form:"type" binding:"omitempty,oneof=click lead sale custom"`
	CustomerID string `form:"customerId"`
	PayoutID   string `form:"payoutId"`
	PartnerID  string `form:"partnerId"`
	Interval   string `form:"interval" binding:"omitempty,oneof=24h 7d 30d 90d 1y mtd qtd ytd all"`
	Start      string `form:"start"`
	End        string `form:"end"`
	Page       *int   `form:"page" binding:"omitempty,min=1"`
	PageSize   *int   `form:"pageSize" binding:"omitempty,min=1,max=100"`
	SortBy     string `form:"sortBy" binding:"omitempty,oneof=createdAt amount earnings"`
	SortOrder  string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// ParsedCommissionQuery is a validated query ready for the store
type ParsedCommissionQuery struct {
	Filter     store.CommissionFilter
	Pagination utils.Pagination
}

// ParseCommissionQuery is the structural phase of a commission request:
// binding rules, then the date range, then defaults. Ownership is checked
// separately.
func ParseCommissionQuery(q CommissionQuery, now time.Time) (ParsedCommissionQuery, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return ParsedCommissionQuery{}, err
	}

	f := store.CommissionFilter{
		ProgramID:  strings.TrimSpace(q.ProgramID),
		Status:     q.Status,
		Type:       q.Type,
		CustomerID: strings.TrimSpace(q.CustomerID),
		PayoutID:   strings.TrimSpace(q.PayoutID),
		PartnerID:  strings.TrimSpace(q.PartnerID),
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}
	if f.SortBy == "" {
		f.SortBy = store.SortCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = store.SortDesc
	}

	start, end, err := ResolveInterval(q.Interval, q.Start, q.End, now)
	if err != nil {
		return ParsedCommissionQuery{}, err
	}
	f.Start, f.End = start, end

	return ParsedCommissionQuery{Filter: f, Pagination: utils.NewPagination(q.Page, q.PageSize)}, nil
}

// ResolveInterval turns an explicit start/end pair or a named interval into
// concrete bounds. Explicit dates win over the interval; a date-only end
// covers that whole day.
func ResolveInterval(interval, startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)
	fields := utils.FieldErrors{}

	if startStr != "" || endStr != "" {
		start, end := AllTimeStart, now
		if startStr != "" {
			t, _, err := parseDate(startStr)
			if err != nil {
				fields["start"] = "must be an RFC 3339 timestamp or YYYY-MM-DD"
			}
			start = t
		}
		if endStr != "" {
			t, dateOnly, err := parseDate(endStr)
			if err != nil {
				fields["end"] = "must be an RFC 3339 timestamp or YYYY-MM-DD"
			}
			if dateOnly {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			end = t
		}
		if len(fields) == 0 && start.After(end) {
			fields["start"] = "must not be after end"
		}
		if len(fields) > 0 {
			return time.Time{}, time.Time{}, fields.Err("Invalid date range")
		}
		return start, end, nil
	}

	switch strings.ToLower(strings.TrimSpace(interval)) {
	case "", IntervalAll:
		return AllTimeStart, now, nil
	case Interval24h:
		return now.Add(-24 * time.Hour), now, nil
	case Interval7d:
		return now.AddDate(0, 0, -7), now, nil
	case Interval30d:
		return now.AddDate(0, 0, -30), now, nil
	case Interval90d:
		return now.AddDate(0, 0, -90), now, nil
	case Interval1y:
		return now.AddDate(-1, 0, 0), now, nil
	case IntervalMTD:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now, nil
	case IntervalQTD:
		quarterStart := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), quarterStart, 1, 0, 0, 0, 0, time.UTC), now, nil
	case IntervalYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), now, nil
	default:
		fields["interval"] = "must be one of 24h, 7d, 30d, 90d, 1y, mtd, qtd, ytd, all"
		return time.Time{}, time.Time{}, fields.Err("Invalid interval")
	}
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
