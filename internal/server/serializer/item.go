package serializer

import "github.com/mdouchement/itemd/internal/model"

// Item serializes the identity and the client-writable fields of the given item.
// It is the acknowledgment of creations and updates.
func Item(item *model.Item) map[string]any {
	return map[string]any{
		"_id":         item.ID,
		"name":        item.Name,
		"description": item.Description,
		"quantity":    item.Quantity,
	}
}
