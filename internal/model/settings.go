package model

// Settings is the small device preference blob kept next to the records.
type Settings struct {
	Theme      string `json:"theme"`
	Brightness int    `json:"brightness"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

// DefaultSettings returns the settings of a fresh device.
func DefaultSettings() Settings {
	return Settings{Theme: "light", Brightness: 100}
}

// UserProfile is the active tenant context of the session.
type UserProfile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	BranchID string `json:"branchId"`
	Role     string `json:"role"`
}
