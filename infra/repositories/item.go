package repositories

import (
	"fmt"
	"sync"

	"github.com/giovaniif/vending/domain/item"
)

// ItemRepositoryMemory keeps the catalog in insertion order with unique ids.
type ItemRepositoryMemory struct {
	mutex sync.RWMutex
	items []item.Item
}

func NewItemRepositoryMemory() *ItemRepositoryMemory {
	return &ItemRepositoryMemory{}
}

// NewItemRepositoryMemoryWith seeds the repository; it fails on the first duplicate id.
func NewItemRepositoryMemoryWith(items []item.Item) (*ItemRepositoryMemory, error) {
	r := NewItemRepositoryMemory()
	for _, it := range items {
		if err := r.Add(it); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *ItemRepositoryMemory) Find(itemId int32) (item.Item, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if i := r.indexOf(itemId); i >= 0 {
		return r.items[i], true
	}
	return item.Item{}, false
}

func (r *ItemRepositoryMemory) Add(newItem item.Item) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.indexOf(newItem.Id) >= 0 {
		return fmt.Errorf("%w: id %d", item.ErrDuplicateId, newItem.Id)
	}
	r.items = append(r.items, newItem)
	return nil
}

func (r *ItemRepositoryMemory) Remove(itemId int32) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	i := r.indexOf(itemId)
	if i < 0 {
		return false
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return true
}

func (r *ItemRepositoryMemory) List() []item.Item {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	items := make([]item.Item, len(r.items))
	copy(items, r.items)
	return items
}

func (r *ItemRepositoryMemory) indexOf(itemId int32) int {
	for i, it := range r.items {
		if it.Id == itemId {
			return i
		}
	}
	return -1
}
