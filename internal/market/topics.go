package market

const (
	TopicCatalogReplaced = "market.catalog.replaced"
	TopicOrderCreated    = "market.order.created"
)

// Partition key = seller id, so one seller's events keep their order.
func PartitionKey(sellerID string) []byte { return []byte(sellerID) }
