package catalog

// Supplier provides parts
type Supplier struct {
	SupplierID    int64  `json:"supplierId"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

// RecordID implements Record
func (s Supplier) RecordID() int64 { return s.SupplierID }

// DisplayName implements Record
func (s Supplier) DisplayName() string { return s.Name }

// ToRequest copies the record into an edit draft
func (s Supplier) ToRequest() SupplierRequest {
	return SupplierRequest{
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
	}
}

// SupplierRequest is the body of create and update calls
type SupplierRequest struct {
	Name          string `json:"name" validate:"nonblank,max=100"`
	ContactPerson string `json:"contactPerson" validate:"max=100"`
	Phone         string `json:"phone" validate:"nonblank,max=20"`
	Email         string `json:"email" validate:"nonblank,email"`
	Address       string `json:"address" validate:"max=250"`
}
