package entity

// InsuranceCompany is a selectable insurer from the master-data backend.
type InsuranceCompany struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PolicyCategory is a selectable policy type from the master-data backend.
type PolicyCategory struct {
	ID           int64  `json:"id"`
	CategoryName string `json:"category_name"`
}
