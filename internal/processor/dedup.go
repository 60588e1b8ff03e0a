package processor

import (
	"fmt"
	"strings"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

// ResolveDuplicates groups records by their natural key and resolves
// collisions deterministically. The natural key is the cleaned policy number
// alone; the source system's uniqueness constraint does not include the
// carrier.
//
// Endorsements are never duplicates of each other: each one is renamed
// "Endorsement-E{n}" in input order and kept. For real collisions the record
// with the strictly later effective date wins; when dates tie or are absent
// the record with more non-empty fields wins, and a full tie keeps the
// first-seen record. The loser is always returned in rejected, never
// dropped.
func ResolveDuplicates(records []models.PolicyRecord) (kept, rejected []models.PolicyRecord) {
	held := make(map[string]int, len(records))
	endorsements := 0

	for _, rec := range records {
		if strings.EqualFold(rec.PolicyNumber, models.PolicyTypeEndorsement) {
			endorsements++
			rec.PolicyNumber = fmt.Sprintf("%s-E%d", models.PolicyTypeEndorsement, endorsements)
			kept = append(kept, rec)
			continue
		}

		key := rec.PolicyNumber
		idx, seen := held[key]
		if !seen {
			held[key] = len(kept)
			kept = append(kept, rec)
			continue
		}

		if supersedes(rec, kept[idx]) {
			log.WithFields(map[string]interface{}{
				"policy_number": key,
				"kept_source":   rec.SourceFile,
			}).Debug("Replacing held record for duplicate policy number")
			rejected = append(rejected, kept[idx])
			kept[idx] = rec
		} else {
			log.WithFields(map[string]interface{}{
				"policy_number": key,
				"kept_source":   kept[idx].SourceFile,
			}).Debug("Rejecting duplicate policy number")
			rejected = append(rejected, rec)
		}
	}

	return kept, rejected
}

// supersedes reports whether challenger replaces holder: a strictly later
// effective date wins; otherwise strictly higher field completeness wins;
// ties keep the holder.
func supersedes(challenger, holder models.PolicyRecord) bool {
	c, h := challenger.EffectiveDate, holder.EffectiveDate
	if !c.IsZero() && !h.IsZero() {
		if c.After(h.Time) {
			return true
		}
		if h.After(c.Time) {
			return false
		}
	}
	return challenger.NonEmptyFieldCount() > holder.NonEmptyFieldCount()
}
