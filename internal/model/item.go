package model

// An Item represents a database record and the rendered API response.
type Item struct {
	Base `msgpack:",inline" storm:"inline"`

	Name        string `json:"name"        msgpack:"name"        storm:"unique"`
	Description string `json:"description" msgpack:"description"`
	Quantity    int    `json:"quantity"    msgpack:"quantity"`
}

// NewItem returns a new Item with the given fields.
// Identity and timestamps are assigned by the database on creation.
func NewItem(name, description string, quantity int) *Item {
	return &Item{
		Name:        name,
		Description: description,
		Quantity:    quantity,
	}
}
