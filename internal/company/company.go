package company

import (
	"strings"
	"time"

	companyDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/company"
)

type Company struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Country      string    `json:"country,omitempty"`
	BaseCurrency string    `json:"baseCurrency"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func FromDataModel(c *companyDatamodel.Company) *Company {
	return &Company{
		ID:           c.ID,
		Name:         c.Name,
		Country:      c.Country,
		BaseCurrency: strings.ToUpper(c.BaseCurrency),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func ToDataModel(c *Company) *companyDatamodel.Company {
	return &companyDatamodel.Company{
		ID:           c.ID,
		Name:         c.Name,
		Country:      c.Country,
		BaseCurrency: c.BaseCurrency,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
