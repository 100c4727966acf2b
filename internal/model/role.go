package model

// Role represents user roles in the system
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, WAREHOUSE_MANAGER
	Name        string `gorm:"type:varchar(100)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Role codes as constants
const (
	RoleAdmin            = "ADMIN"
	RoleWarehouseManager = "WAREHOUSE_MANAGER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Full access; reviews stock movement requests",
	},
	{
		Code:        RoleWarehouseManager,
		Name:        "Warehouse Manager",
		Description: "Submits stock movement requests and views history",
	},
}
