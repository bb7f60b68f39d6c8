package models

// Role is the authorization signal carried by every user.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Capability names a guarded operation.
type Capability string

const (
	CapCreateProduct     Capability = "create_product"
	CapViewSellerCatalog Capability = "view_seller_catalog"
)

// capabilities is the single place where roles are granted operations.
// Admins can browse the seller catalog but cannot create products.
var capabilities = map[Capability][]Role{
	CapCreateProduct:     {RoleSeller},
	CapViewSellerCatalog: {RoleSeller, RoleAdmin},
}

// Can reports whether role r holds capability c.
func (r Role) Can(c Capability) bool {
	for _, allowed := range capabilities[c] {
		if allowed == r {
			return true
		}
	}
	return false
}
