package model

// Product is a menu catalog item consumed by the POS basket and signage.
type Product struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Price       Amount `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Category    string `gorm:"type:varchar(100);index" json:"category" validate:"required"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string `gorm:"type:text" json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	BranchID    string `gorm:"type:varchar(64);index" json:"branch_id"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"`
}

// MenuCategory groups active products for the signage display.
type MenuCategory struct {
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}
