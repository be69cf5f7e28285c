package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysAuditLog{},
	// Accounts
	&User{},
	// Catalog
	&Category{},
	&Product{},
	// Orders
	&Order{},
	&OrderItem{},
}
