package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/yashrajoria/storefront/services/cart-service/models"
)

// Fingerprint identifies a cart's purchasable content for one owner. Item
// order, names and prices do not affect it.
func Fingerprint(owner string, items []models.CartItem) string {
	qty := make(map[int64]int, len(items))
	for _, it := range items {
		qty[it.VariantID] += it.Qty
	}
	ids := make([]int64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	b.WriteString(owner)
	for _, id := range ids {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(qty[id]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
