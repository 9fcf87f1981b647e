package httpapi

// The auth policy is a table rather than inline checks so the asymmetry is
// auditable in one place: reads and cart creation are gated by a bearer
// token, while the item write paths are anonymous.
type operation string

const (
	opGetCart    operation = "GetCart"
	opCreateCart operation = "CreateCart"
	opAddItems   operation = "AddItems"
	opRemoveItem operation = "RemoveItem"
)

var authRequired = map[operation]bool{
	opGetCart:    true,
	opCreateCart: true,
	opAddItems:   false,
	opRemoveItem: false,
}
