package approval

import "strings"

// Deduplicate keeps the first occurrence of every identity key and drops
// later duplicates. Surviving records keep their first-occurrence order.
func Deduplicate(records []DrugApproval) []DrugApproval {
	seen := make(map[string]struct{}, len(records))
	result := make([]DrugApproval, 0, len(records))

	for _, r := range records {
		key := IdentityKey(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, r)
	}

	return result
}

// MergeIncoming appends uploaded records whose identity key is not yet part
// of existing. Existing records always win; incoming duplicates are dropped
// without any field-level merge. The second return value is the number of
// net-new records.
func MergeIncoming(existing, incoming []DrugApproval) ([]DrugApproval, int) {
	base := Deduplicate(existing)
	merged := Deduplicate(append(append(make([]DrugApproval, 0, len(base)+len(incoming)), base...), incoming...))

	return merged, len(merged) - len(base)
}

// MergeSourceWithCloud reconciles the bundled dataset with the cloud dataset.
// Cloud records come first in cloud order, followed by source records absent
// from the cloud in source order. For keys present in both, the cloud record
// is used except for fdaUrl, which is taken from the source when
// ShouldOverrideFdaURL allows it.
func MergeSourceWithCloud(source, cloud []DrugApproval) []DrugApproval {
	sourceByKey := make(map[string]DrugApproval, len(source))
	for _, r := range source {
		key := IdentityKey(r)
		if _, ok := sourceByKey[key]; !ok {
			sourceByKey[key] = r
		}
	}

	cloudKeys := make(map[string]struct{}, len(cloud))
	result := make([]DrugApproval, 0, len(cloud)+len(source))

	for _, c := range cloud {
		key := IdentityKey(c)
		if _, ok := cloudKeys[key]; ok {
			continue
		}
		cloudKeys[key] = struct{}{}

		if s, ok := sourceByKey[key]; ok && ShouldOverrideFdaURL(c.FdaURL, s.FdaURL) {
			c.FdaURL = String(*s.FdaURL)
		}
		result = append(result, c)
	}

	added := make(map[string]struct{}, len(source))
	for _, s := range source {
		key := IdentityKey(s)
		if _, ok := cloudKeys[key]; ok {
			continue
		}
		if _, ok := added[key]; ok {
			continue
		}
		added[key] = struct{}{}
		result = append(result, s)
	}

	return result
}

// ShouldOverrideFdaURL decides whether the bundled source URL replaces the
// cloud URL of the same approval.
func ShouldOverrideFdaURL(cloudURL, sourceURL *string) bool {
	if sourceURL == nil || !IsValidURL(*sourceURL) {
		return false
	}
	if cloudURL == nil || !IsValidURL(*cloudURL) {
		return true
	}
	if *cloudURL == *sourceURL {
		return false
	}
	return strings.HasPrefix(*cloudURL, UnstableURLPrefix)
}
