package entities

import (
	"sort"
	"strconv"
	"strings"
)

// AttributeOption represents a selectable value of a list-type attribute
type AttributeOption struct {
	OptionID    int64
	AttributeID int64
	SortOrder   int
	StoreLabels map[int64]string // store ID -> label
	Label       string           // label of the default store (ID 0)
}

// SetStoreLabel records the label for storeID, also setting Label for the default store
func (o *AttributeOption) SetStoreLabel(storeID int64, value string) {
	if o.StoreLabels == nil {
		o.StoreLabels = make(map[int64]string)
	}
	o.StoreLabels[storeID] = value
	if storeID == DefaultStoreID {
		o.Label = value
	}
}

// OptionSubmission carries option changes submitted together with an attribute.
// Keys are client supplied: a numeric key refers to an existing option ID,
// anything else (e.g., "option_0") creates a new option.
type OptionSubmission struct {
	Value  map[string]map[int64]string // option key -> store ID -> label
	Order  map[string]int              // option key -> sort order
	Delete map[string]bool             // option key -> delete flag
}

// Keys returns the submitted option keys in a stable order.
// Keys sharing a prefix are ordered by their numeric suffix, so "option_2" precedes "option_10".
func (s *OptionSubmission) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.Value))
	for k := range s.Value {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
	return keys
}

func naturalLess(a, b string) bool {
	prefixA, numA := splitNumericSuffix(a)
	prefixB, numB := splitNumericSuffix(b)
	if prefixA != prefixB {
		return prefixA < prefixB
	}
	if numA != numB {
		return numA < numB
	}
	return a < b
}

// splitNumericSuffix splits "option_12" into ("option_", 12).
// Keys without a numeric suffix are returned whole with 0.
func splitNumericSuffix(key string) (string, int64) {
	prefix := strings.TrimRight(key, "0123456789")
	if prefix == key {
		return key, 0
	}
	n, err := strconv.ParseInt(key[len(prefix):], 10, 64)
	if err != nil {
		return key, 0
	}
	return prefix, n
}

// SortOrderOf returns the submitted sort order for key, 0 when absent
func (s *OptionSubmission) SortOrderOf(key string) int {
	if s == nil || s.Order == nil {
		return 0
	}
	return s.Order[key]
}

// IsDeleted reports whether key is flagged for deletion
func (s *OptionSubmission) IsDeleted(key string) bool {
	return s != nil && s.Delete != nil && s.Delete[key]
}

// ParseOptionKey returns the existing option ID encoded in key.
// Any non-zero integer is an option ID; ok is false for keys of new options.
func ParseOptionKey(key string) (id int64, ok bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// StoreLabelAllowed reports whether a submitted label is stored.
// Missing and empty labels are skipped; "0" is a real label.
func StoreLabelAllowed(labels map[int64]string, storeID int64) (string, bool) {
	value, ok := labels[storeID]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
