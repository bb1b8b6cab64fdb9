// Package filter evaluates the criteria DSL used by chat, command, item and hit
// triggers: "any", a plain value, or filter[v1,v2,...] with one of
// contains, endswith, equals, startswith.
package filter

import (
	"log/slog"
	"strings"
)

// Any matches every value.
const Any = "any"

// Filter names.
const (
	Contains   = "contains"
	EndsWith   = "endswith"
	Equals     = "equals"
	StartsWith = "startswith"
)

type relation func(value, element string) bool

var relations = map[string]relation{
	Contains:   strings.Contains,
	EndsWith:   strings.HasSuffix,
	Equals:     func(value, element string) bool { return value == element },
	StartsWith: strings.HasPrefix,
}

// Match reports whether value satisfies criterion. Both are compared
// lower-cased. Malformed criteria never match.
func Match(criterion, value string) bool {
	criterion = strings.ToLower(criterion)
	value = strings.ToLower(value)

	if criterion == Any || criterion == value {
		return true
	}

	name, list, ok := parse(criterion)
	if !ok {
		slog.Debug("malformed criterion", "criterion", criterion)
		return false
	}

	rel := relations[name]
	for _, element := range list {
		if element == "" {
			continue
		}
		if rel(value, element) {
			return true
		}
	}
	return false
}

// parse splits "name[a,b]" into its filter name and list.
// Без скобок весь критерий — это equals по одному значению.
func parse(criterion string) (name string, list []string, ok bool) {
	open := strings.IndexByte(criterion, '[')
	if open < 0 {
		if strings.IndexByte(criterion, ']') >= 0 {
			return "", nil, false
		}
		return Equals, []string{criterion}, true
	}

	if !strings.HasSuffix(criterion, "]") {
		return "", nil, false
	}
	body := criterion[open+1 : len(criterion)-1]
	if strings.ContainsAny(body, "[]") {
		return "", nil, false
	}

	name = criterion[:open]
	if _, known := relations[name]; !known {
		return "", nil, false
	}
	return name, strings.Split(body, ","), true
}
