// Package classify matches media metadata against an ordered, user-defined
// category taxonomy.
//
// The taxonomy is a YAML document with fixed movie and tv sections. Each
// section lists categories in priority order; a category's condition set
// must hold in full for the category to match (conditions AND together,
// values within one condition OR together). The final category of each
// section carries no conditions and acts as the terminal fallback, so
// classification always succeeds.
package classify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"curator/internal/media"
)

// Rule is one category with its condition set. An empty condition set
// matches every record.
type Rule struct {
	Category            string
	GenreIDs            []int
	OriginalLanguages   []string
	OriginCountries     []string
	ProductionCountries []string
}

// Taxonomy holds the ordered rule sets for both media kinds.
type Taxonomy struct {
	Movie []Rule
	TV    []Rule
}

// Parse decodes and validates a taxonomy document. Rule order follows
// document order, which is why decoding walks yaml nodes instead of maps.
func Parse(text []byte) (*Taxonomy, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("taxonomy: empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("taxonomy: top level must be a mapping with movie and tv sections")
	}

	tax := &Taxonomy{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		value := root.Content[i+1]
		switch key.Value {
		case string(media.KindMovie):
			rules, err := parseRules(key.Value, value)
			if err != nil {
				return nil, err
			}
			tax.Movie = rules
		case string(media.KindTV):
			rules, err := parseRules(key.Value, value)
			if err != nil {
				return nil, err
			}
			tax.TV = rules
		default:
			return nil, fmt.Errorf("taxonomy: unknown section %q", key.Value)
		}
	}
	if tax.Movie == nil || tax.TV == nil {
		return nil, errors.New("taxonomy: both movie and tv sections are required")
	}
	if err := validateFallback(string(media.KindMovie), tax.Movie); err != nil {
		return nil, err
	}
	if err := validateFallback(string(media.KindTV), tax.TV); err != nil {
		return nil, err
	}
	return tax, nil
}

// Classify returns the first matching category for the record's kind. The
// terminal rule guarantees a match.
func (t *Taxonomy) Classify(rec media.Record) string {
	for _, rule := range t.rules(rec.Kind) {
		if rule.Matches(rec) {
			return rule.Category
		}
	}
	return t.Fallback(rec.Kind)
}

// Fallback returns the terminal category for the given kind.
func (t *Taxonomy) Fallback(kind media.Kind) string {
	rules := t.rules(kind)
	if len(rules) == 0 {
		return ""
	}
	return rules[len(rules)-1].Category
}

func (t *Taxonomy) rules(kind media.Kind) []Rule {
	if kind == media.KindTV {
		return t.TV
	}
	return t.Movie
}

// Matches reports whether every non-empty condition intersects the record's
// metadata. A missing metadata field never intersects.
func (r Rule) Matches(rec media.Record) bool {
	if len(r.GenreIDs) > 0 && !intersectInts(r.GenreIDs, rec.GenreIDs) {
		return false
	}
	if len(r.OriginalLanguages) > 0 && !containsString(r.OriginalLanguages, strings.ToLower(rec.OriginalLanguage)) {
		return false
	}
	if len(r.OriginCountries) > 0 && !intersectUpper(r.OriginCountries, rec.OriginCountries) {
		return false
	}
	if len(r.ProductionCountries) > 0 && !intersectUpper(r.ProductionCountries, rec.ProductionCountries) {
		return false
	}
	return true
}

func (r Rule) terminal() bool {
	return len(r.GenreIDs) == 0 &&
		len(r.OriginalLanguages) == 0 &&
		len(r.OriginCountries) == 0 &&
		len(r.ProductionCountries) == 0
}

func parseRules(section string, node *yaml.Node) ([]Rule, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("taxonomy: section %q must map category names to conditions", section)
	}
	rules := make([]Rule, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		if name == "" {
			return nil, fmt.Errorf("taxonomy: empty category name in section %q", section)
		}
		rule, err := parseConditions(section, name, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("taxonomy: section %q defines no categories", section)
	}
	return rules, nil
}

func parseConditions(section, category string, node *yaml.Node) (Rule, error) {
	rule := Rule{Category: category}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return rule, nil
		}
		return rule, fmt.Errorf("taxonomy: category %q in %q must hold a condition mapping or nothing", category, section)
	case yaml.MappingNode:
	default:
		return rule, fmt.Errorf("taxonomy: category %q in %q must hold a condition mapping or nothing", category, section)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return rule, fmt.Errorf("taxonomy: condition %q of %q must be a scalar value list", key, category)
		}
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			continue
		}
		switch key {
		case "genre_ids":
			ids, err := splitInts(value.Value)
			if err != nil {
				return rule, fmt.Errorf("taxonomy: genre_ids of %q: %w", category, err)
			}
			rule.GenreIDs = ids
		case "original_language":
			rule.OriginalLanguages = splitList(value.Value, strings.ToLower)
		case "origin_country":
			rule.OriginCountries = splitList(value.Value, strings.ToUpper)
		case "production_countries":
			rule.ProductionCountries = splitList(value.Value, strings.ToUpper)
		default:
			return rule, fmt.Errorf("taxonomy: unknown condition key %q in category %q", key, category)
		}
	}
	return rule, nil
}

// validateFallback enforces the terminal-fallback invariant: exactly one
// unconditioned category per section, and it must come last so declared
// order keeps meaning for every other rule.
func validateFallback(section string, rules []Rule) error {
	terminal := 0
	for idx, rule := range rules {
		if !rule.terminal() {
			continue
		}
		terminal++
		if idx != len(rules)-1 {
			return fmt.Errorf("taxonomy: unconditioned category %q in %q shadows later categories; it must be last", rule.Category, section)
		}
	}
	if terminal != 1 {
		return fmt.Errorf("taxonomy: section %q needs exactly one unconditioned fallback category, found %d", section, terminal)
	}
	return nil
}

func splitList(value string, normalize func(string) string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, normalize(part))
	}
	return out
}

func splitInts(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid genre id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func intersectInts(required, have []int) bool {
	for _, r := range required {
		for _, h := range have {
			if r == h {
				return true
			}
		}
	}
	return false
}

func intersectUpper(required, have []string) bool {
	for _, h := range have {
		if containsString(required, strings.ToUpper(h)) {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	if value == "" {
		return false
	}
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
