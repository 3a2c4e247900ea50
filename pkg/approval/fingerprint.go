package approval

import "strconv"

// FingerprintVersion is embedded in every fingerprint so that a change in the
// digest inputs never collides with fingerprints stored by older releases.
const FingerprintVersion = "v1"

// Fingerprint returns a cheap, order-sensitive digest of the dataset. It is
// used to detect no-op saves and is not an integrity guarantee.
func Fingerprint(records []DrugApproval) string {
	if len(records) == 0 {
		return FingerprintVersion + "-empty"
	}

	sum := 0
	for _, r := range records {
		sum += len(r.ApplicationNo)
	}

	return FingerprintVersion + "-" +
		strconv.Itoa(len(records)) + "-" +
		records[0].ApplicationNo + "-" +
		records[len(records)-1].ApplicationNo + "-" +
		strconv.Itoa(sum)
}
