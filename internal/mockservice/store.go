// Package mockservice is an in-memory stand-in for the remote product
// resource. It speaks the same listing and mutation format as the real
// service, with a configurable latency so loading states can be observed.
package mockservice

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/Humphrey-He/productdash/pkg/model"
)

// Calls counts requests that reached the store, per operation.
type Calls struct {
	List   int64 `json:"list"`
	Get    int64 `json:"get"`
	Create int64 `json:"create"`
	Update int64 `json:"update"`
	Delete int64 `json:"delete"`
}

// Store simulates the remote product database.
type Store struct {
	mu       sync.RWMutex
	products map[int]model.Product
	nextID   int
	latency  time.Duration

	list, get, create, update, del atomic.Int64
}

var catalog = []model.Product{
	{Title: "iPhone 9", Price: 549, Category: "smartphones", Brand: "Apple", Stock: 94, Rating: 4.69},
	{Title: "iPhone X", Price: 899, Category: "smartphones", Brand: "Apple", Stock: 34, Rating: 4.44},
	{Title: "Samsung Universe 9", Price: 1249, Category: "smartphones", Brand: "Samsung", Stock: 36, Rating: 4.09},
	{Title: "OPPOF19", Price: 280, Category: "smartphones", Brand: "OPPO", Stock: 123, Rating: 4.3},
	{Title: "Huawei P30", Price: 499, Category: "smartphones", Brand: "Huawei", Stock: 32, Rating: 4.09},
	{Title: "MacBook Pro", Price: 1749, Category: "laptops", Brand: "Apple", Stock: 83, Rating: 4.57},
	{Title: "Samsung Galaxy Book", Price: 1499, Category: "laptops", Brand: "Samsung", Stock: 50, Rating: 4.25},
	{Title: "Microsoft Surface Laptop 4", Price: 1499, Category: "laptops", Brand: "Microsoft Surface", Stock: 68, Rating: 4.43},
	{Title: "Infinix INBOOK", Price: 1099, Category: "laptops", Brand: "Infinix", Stock: 96, Rating: 4.54},
	{Title: "HP Pavilion 15-DK1056WM", Price: 1099, Category: "laptops", Brand: "HP Pavilion", Stock: 89, Rating: 4.43},
	{Title: "perfume Oil", Price: 13, Category: "fragrances", Brand: "Impression of Acqua Di Gio", Stock: 65, Rating: 4.26},
	{Title: "Brown Perfume", Price: 40, Category: "fragrances", Brand: "Royal_Mirage", Stock: 52, Rating: 4},
	{Title: "Fog Scent Xpressio Perfume", Price: 13, Category: "fragrances", Brand: "Fog Scent Xpressio", Stock: 61, Rating: 4.59},
	{Title: "Non-Alcoholic Concentrated Perfume Oil", Price: 120, Category: "fragrances", Brand: "Al Munakh", Stock: 114, Rating: 4.21},
	{Title: "Eau De Perfume Spray", Price: 30, Category: "fragrances", Brand: "Lord - Al-Rehab", Stock: 105, Rating: 4.7},
	{Title: "Hyaluronic Acid Serum", Price: 19, Category: "skincare", Brand: "L'Oreal Paris", Stock: 110, Rating: 4.83},
	{Title: "Tree Oil 30ml", Price: 12, Category: "skincare", Brand: "Hemani Tea", Stock: 78, Rating: 4.52},
	{Title: "Oil Free Moisturizer 100ml", Price: 40, Category: "skincare", Brand: "Dermive", Stock: 88, Rating: 4.56},
	{Title: "Skin Beauty Serum.", Price: 46, Category: "skincare", Brand: "ROREC White Rice", Stock: 54, Rating: 4.42},
	{Title: "Freckle Treatment Cream- 15gm", Price: 70, Category: "skincare", Brand: "Fair & Clear", Stock: 140, Rating: 4.06},
	{Title: "daal masoor 500 grams", Price: 20, Category: "groceries", Brand: "Saaf & Khaas", Stock: 133, Rating: 4.44},
	{Title: "Elbow Macaroni - 400 gm", Price: 14, Category: "groceries", Brand: "Bake Parlor Big", Stock: 146, Rating: 4.57},
	{Title: "Orange Essence Food Flavou", Price: 14, Category: "groceries", Brand: "Baking Food Items", Stock: 26, Rating: 4.85},
	{Title: "cereals muesli fruit nuts", Price: 46, Category: "groceries", Brand: "fauji", Stock: 113, Rating: 4.94},
	{Title: "Gulab Powder 50 Gram", Price: 70, Category: "groceries", Brand: "Dry Rose", Stock: 47, Rating: 4.87},
}

// NewStore creates a store holding the first seed products of the built-in
// catalog, cycling through it when seed exceeds its length.
func NewStore(seed int, latency time.Duration) *Store {
	s := &Store{
		products: make(map[int]model.Product, seed),
		latency:  latency,
	}
	for i := 0; i < seed; i++ {
		p := catalog[i%len(catalog)]
		if i >= len(catalog) {
			p.Title = fmt.Sprintf("%s #%d", p.Title, i/len(catalog)+1)
		}
		s.nextID++
		p.ID = s.nextID
		s.products[p.ID] = p
	}
	return s
}

// CatalogSize is the number of distinct built-in products.
func CatalogSize() int {
	return len(catalog)
}

func (s *Store) sleep(ctx context.Context) error {
	s.mu.RLock()
	d := s.latency
	s.mu.RUnlock()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetLatency changes the simulated latency.
func (s *Store) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// List returns up to limit products ordered by id starting at skip.
// A limit of 0 returns everything after skip.
func (s *Store) List(ctx context.Context, skip, limit int) (model.ProductPage, error) {
	s.list.Add(1)
	if err := s.sleep(ctx); err != nil {
		return model.ProductPage{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	page := model.ProductPage{
		Products: []model.Product{},
		Total:    len(ids),
		Offset:   skip,
		Limit:    limit,
	}
	if skip >= len(ids) {
		page.Limit = 0
		return page, nil
	}
	end := len(ids)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	for _, id := range ids[skip:end] {
		page.Products = append(page.Products, s.products[id])
	}
	page.Limit = len(page.Products)
	return page, nil
}

// Get returns one product.
func (s *Store) Get(ctx context.Context, id int) (model.Product, error) {
	s.get.Add(1)
	if err := s.sleep(ctx); err != nil {
		return model.Product{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, pderrors.ErrNotFound
	}
	return p, nil
}

// Create stores a new product and assigns its id.
func (s *Store) Create(ctx context.Context, d model.Draft) (model.Product, error) {
	s.create.Add(1)
	if err := s.sleep(ctx); err != nil {
		return model.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := d.Product(s.nextID)
	s.products[p.ID] = p
	return p, nil
}

// Update replaces the fields of an existing product.
func (s *Store) Update(ctx context.Context, id int, d model.Draft) (model.Product, error) {
	s.update.Add(1)
	if err := s.sleep(ctx); err != nil {
		return model.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return model.Product{}, pderrors.ErrNotFound
	}
	p := d.Product(id)
	s.products[id] = p
	return p, nil
}

// Delete removes a product and returns it.
func (s *Store) Delete(ctx context.Context, id int) (model.Product, error) {
	s.del.Add(1)
	if err := s.sleep(ctx); err != nil {
		return model.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, pderrors.ErrNotFound
	}
	delete(s.products, id)
	return p, nil
}

// Calls returns the per-operation request counters.
func (s *Store) Calls() Calls {
	return Calls{
		List:   s.list.Load(),
		Get:    s.get.Load(),
		Create: s.create.Load(),
		Update: s.update.Load(),
		Delete: s.del.Load(),
	}
}
