package item

// Repository is the machine's inventory: an ordered collection of items keyed by id.
type Repository interface {
	Find(itemId int32) (Item, bool)
	Add(item Item) error
	Remove(itemId int32) bool
	List() []Item
}
