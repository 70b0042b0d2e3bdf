package dashboard

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// FilterAll matches every status or environment.
const FilterAll = "all"

// SortKey selects the field FilterServices orders by.
type SortKey string

const (
	SortNone         SortKey = ""
	SortName         SortKey = "name"
	SortStatus       SortKey = "status"
	SortOwner        SortKey = "owner"
	SortRequests     SortKey = "requests"
	SortResponseTime SortKey = "responseTime"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortName, SortStatus, SortOwner, SortRequests, SortResponseTime:
		return true
	}
	return false
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query describes a search, filter and sort over services.
type Query struct {
	// Search is matched case-insensitively against name, description and owner.
	Search string
	// Status is an exact status, or empty/"all".
	Status string
	// Environment is an exact environment, or empty/"all".
	Environment string
	SortBy      SortKey
	Order       SortOrder
}

// FilterServices returns the services matching every predicate of q, stably
// ordered by q.SortBy. The input is not modified.
func FilterServices(services []Service, q Query) []Service {
	search := strings.ToLower(q.Search)

	out := make([]Service, 0, len(services))
	for _, svc := range services {
		if !matchesSearch(svc, search) {
			continue
		}
		if !matchesFilter(string(svc.Status), q.Status) {
			continue
		}
		if !matchesFilter(string(svc.Environment), q.Environment) {
			continue
		}
		out = append(out, copyService(svc))
	}

	compare := comparator(q.SortBy)
	if compare == nil {
		return out
	}
	if q.Order == SortDesc {
		slices.SortStableFunc(out, func(a, b Service) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func matchesSearch(svc Service, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(svc.Name), search) ||
		strings.Contains(strings.ToLower(svc.Description), search) ||
		strings.Contains(strings.ToLower(svc.Owner), search)
}

func matchesFilter(value, filter string) bool {
	return filter == "" || filter == FilterAll || value == filter
}

func comparator(key SortKey) func(a, b Service) int {
	switch key {
	case SortName:
		return func(a, b Service) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortStatus:
		return func(a, b Service) int {
			return strings.Compare(string(a.Status), string(b.Status))
		}
	case SortOwner:
		return func(a, b Service) int {
			return strings.Compare(strings.ToLower(a.Owner), strings.ToLower(b.Owner))
		}
	case SortRequests:
		return func(a, b Service) int {
			return cmp.Compare(a.Metrics.RequestsPerMinute, b.Metrics.RequestsPerMinute)
		}
	case SortResponseTime:
		return func(a, b Service) int {
			return cmp.Compare(a.Metrics.ResponseTime, b.Metrics.ResponseTime)
		}
	}
	return nil
}

// Summary aggregates the service collection. Averages over an empty
// collection are zero.
type Summary struct {
	Total           int     `json:"totalServices"`
	Healthy         int     `json:"healthyServices"`
	Warning         int     `json:"warningServices"`
	Critical        int     `json:"criticalServices"`
	TotalRequests   float64 `json:"totalRequests"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	AvgErrorRate    float64 `json:"avgErrorRate"`
	AvgCPU          float64 `json:"avgCpu"`
	AvgMemory       float64 `json:"avgMemory"`
	HealthyPercent  float64 `json:"healthyPercent"`
}

// Summarize computes summary statistics. Response time and healthy percentage
// are rounded half up to integers; error rate, CPU and memory to 2 decimals.
func Summarize(services []Service) Summary {
	var (
		sum     Summary
		respSum float64
		errSum  float64
		cpuSum  float64
		memSum  float64
	)

	sum.Total = len(services)
	for _, svc := range services {
		switch svc.Status {
		case StatusHealthy:
			sum.Healthy++
		case StatusWarning:
			sum.Warning++
		case StatusCritical:
			sum.Critical++
		}
		sum.TotalRequests += svc.Metrics.RequestsPerMinute
		respSum += svc.Metrics.ResponseTime
		errSum += svc.Metrics.ErrorRate
		cpuSum += svc.Metrics.CPU
		memSum += svc.Metrics.Memory
	}

	if sum.Total == 0 {
		return sum
	}

	n := float64(sum.Total)
	sum.AvgResponseTime = roundHalfUp(respSum/n, 0)
	sum.AvgErrorRate = roundHalfUp(errSum/n, 2)
	sum.AvgCPU = roundHalfUp(cpuSum/n, 2)
	sum.AvgMemory = roundHalfUp(memSum/n, 2)
	sum.HealthyPercent = roundHalfUp(float64(sum.Healthy)/n*100, 0)
	return sum
}

// TopByRequests returns the n services with the highest request rate. Ties
// keep input order.
func TopByRequests(services []Service, n int) []Service {
	if n <= 0 {
		return []Service{}
	}

	sorted := copyServices(services)
	slices.SortStableFunc(sorted, func(a, b Service) int {
		return cmp.Compare(b.Metrics.RequestsPerMinute, a.Metrics.RequestsPerMinute)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// StatusCount is one bucket of the status distribution.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// StatusDistribution counts services per status. All three buckets are always
// present, in display order.
func StatusDistribution(services []Service) []StatusCount {
	statuses := Statuses()
	counts := make(map[Status]int, len(statuses))
	for _, svc := range services {
		counts[svc.Status]++
	}

	out := make([]StatusCount, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, StatusCount{Status: st, Count: counts[st]})
	}
	return out
}

func roundHalfUp(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Floor(v*scale+0.5) / scale
}
