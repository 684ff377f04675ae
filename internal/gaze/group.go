package gaze

import (
	"fmt"
	"sort"
	"strings"
)

// GroupingKey selects how episodes are bucketed for accumulation and
// validation.
type GroupingKey string

const (
	// GroupByCohort buckets episodes by cohort alone.
	GroupByCohort GroupingKey = "cohort"
	// GroupBySpecification buckets episodes by specification within a cohort.
	GroupBySpecification GroupingKey = "specification"
)

// ParseGroupingKey converts a grouping key name.
func ParseGroupingKey(s string) (GroupingKey, error) {
	k := GroupingKey(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case GroupByCohort, GroupBySpecification:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown grouping key %q", ErrInvalidInput, s)
}

// GroupName returns the name of the group e belongs to under key.
func (k GroupingKey) GroupName(e *Episode) string {
	if k == GroupBySpecification {
		return fmt.Sprintf("specification-%s-cohort-%s", e.Specification, e.Cohort)
	}
	return "cohort-" + e.Cohort
}

// Group is a named bucket of episodes.
type Group struct {
	Name     string
	Episodes []*Episode
}

// GroupEpisodes buckets episodes under key. Groups are sorted by name and keep
// the input order of their episodes.
func GroupEpisodes(episodes []*Episode, key GroupingKey) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, e := range episodes {
		name := key.GroupName(e)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Episodes = append(groups[i].Episodes, e)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})
	return groups
}

// Find returns the group named name.
func Find(groups []Group, name string) (Group, bool) {
	for _, g := range groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}
