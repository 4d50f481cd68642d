package catalog

// Field length ceilings enforced both by dialogs and by the import rules
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 250
)

// Category groups parts
type Category struct {
	CategoryID  int64  `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RecordID implements Record
func (c Category) RecordID() int64 { return c.CategoryID }

// DisplayName implements Record
func (c Category) DisplayName() string { return c.Name }

// ToRequest copies the record into an edit draft
func (c Category) ToRequest() CategoryRequest {
	return CategoryRequest{
		Name:        c.Name,
		Description: c.Description,
	}
}

// CategoryRequest is the body of create and update calls
type CategoryRequest struct {
	Name        string `json:"name" validate:"nonblank,max=100"`
	Description string `json:"description" validate:"max=250"`
}
