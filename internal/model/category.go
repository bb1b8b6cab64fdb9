package model

import "strings"

// Category is the mixer channel a sound plays on.
type Category uint8

const (
	CategoryMaster Category = iota
	CategoryMusic
	CategoryRecord
	CategoryWeather
	CategoryBlock
	CategoryHostile
	CategoryNeutral
	CategoryPlayer
	CategoryAmbient
	CategoryVoice
)

// DefaultCategory is used for unknown category names.
const DefaultCategory = CategoryMaster

var categoryNames = [...]string{
	CategoryMaster:  "master",
	CategoryMusic:   "music",
	CategoryRecord:  "record",
	CategoryWeather: "weather",
	CategoryBlock:   "block",
	CategoryHostile: "hostile",
	CategoryNeutral: "neutral",
	CategoryPlayer:  "player",
	CategoryAmbient: "ambient",
	CategoryVoice:   "voice",
}

// String returns the lower-case category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return categoryNames[DefaultCategory]
}

// ParseCategory maps a name (case-insensitive) to a Category.
// ok is false when the name is unknown; DefaultCategory is returned then.
func ParseCategory(name string) (c Category, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return DefaultCategory, false
}
