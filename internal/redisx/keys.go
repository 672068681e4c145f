package redisx

import "time"

const (
	// Catalog generation per seller: catalog:gen:{seller_id} -> int
	KeyCatalogGen = "catalog:gen:%s"

	// Cached catalog read: catalog:{seller_id}:{gen} -> json (or "null")
	KeyCatalog = "catalog:%s:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Seller counters: hash stats:seller:{seller_id} {orders, products}
	KeySellerStats = "stats:seller:%s"
)

var (
	TTLCatalog    = 5 * time.Minute
	TTLCatalogGen = 7 * 24 * time.Hour
	TTLDedup      = 48 * time.Hour
)
