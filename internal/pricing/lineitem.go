package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
)

// Fingerprint hashes the canonical JSON form of customizations. encoding/json
// sorts map keys, so two records that are deeply equal hash the same. A nil
// record and an empty one share the empty fingerprint.
func Fingerprint(c *models.Customizations) string {
	if c == nil || (len(c.Details) == 0 && c.CustomizationPrice.IsZero()) {
		return ""
	}

	payload, err := json.Marshal(c)
	if err != nil {
		// fmt also prints maps in key order
		payload = []byte(fmt.Sprintf("%v|%s", c.Details, c.CustomizationPrice.String()))
	}

	sum := sha256.Sum256(payload)

	return hex.EncodeToString(sum[:])
}

func KeyOf(item models.LineItem) models.LineItemKey {
	return models.LineItemKey{
		ProductID:                 item.ProductID,
		SelectedSize:              item.SelectedSize,
		CustomizationsFingerprint: Fingerprint(item.Customizations),
	}
}

func SelectorKey(s models.ItemSelector) models.LineItemKey {
	return models.LineItemKey{
		ProductID:                 s.ProductID,
		SelectedSize:              s.SelectedSize,
		CustomizationsFingerprint: Fingerprint(s.Customizations),
	}
}

// Find returns the index of the line item with the given key, or -1.
func Find(items []models.LineItem, key models.LineItemKey) int {
	for i, item := range items {
		if KeyOf(item) == key {
			return i
		}
	}

	return -1
}

// Upsert replaces the entry with the same identity as incoming, keeping its
// position, or appends incoming. Quantities are not summed. The returned
// slice is a new one; items is left untouched.
func Upsert(items []models.LineItem, incoming models.LineItem) ([]models.LineItem, bool) {
	out := make([]models.LineItem, len(items), len(items)+1)
	copy(out, items)

	if i := Find(out, KeyOf(incoming)); i >= 0 {
		out[i] = incoming
		return out, true
	}

	return append(out, incoming), false
}

// Remove drops the entry with the given key. It reports whether one was found.
func Remove(items []models.LineItem, key models.LineItemKey) ([]models.LineItem, bool) {
	i := Find(items, key)
	if i < 0 {
		return items, false
	}

	out := make([]models.LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)

	return append(out, items[i+1:]...), true
}
