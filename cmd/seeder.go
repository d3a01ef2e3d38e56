package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/expense-reimbursement/internal/auth"
	approvalDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/approval"
	categoryDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/category"
	companyDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/company"
	userDatamodel "github.com/frahmantamala/expense-reimbursement/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/expense-reimbursement/internal/core/user"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed a demo company with an admin, a manager, two employees, categories and a travel approval rule.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, lg, err := setup()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
				fmt.Println("Cleared existing data")
			}
			return seed(tx, hash)
		})
		if err != nil {
			log.Fatalf("seeding failed: %v", err)
		}

		lg.Info("seed completed", "password", seedPassword)
	},
}

func clearSeedData(tx *gorm.DB) error {
	for _, table := range []string{"approval_actions", "expenses", "approval_rules", "expense_categories", "users", "companies"} {
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

func seed(tx *gorm.DB, hash string) error {
	company := companyDatamodel.Company{Name: "Acme Corp", Country: "United States", BaseCurrency: "USD"}
	if err := tx.Where(companyDatamodel.Company{Name: company.Name}).FirstOrCreate(&company).Error; err != nil {
		return fmt.Errorf("seed company: %w", err)
	}
	fmt.Println("Seeded company:", company.Name)

	admin, err := seedUser(tx, company.ID, "admin@acme.test", "Ada Admin", coreUser.RoleAdmin, nil, hash)
	if err != nil {
		return err
	}
	manager, err := seedUser(tx, company.ID, "manager@acme.test", "Max Manager", coreUser.RoleManager, nil, hash)
	if err != nil {
		return err
	}
	for _, e := range []struct{ email, name string }{
		{"emma@acme.test", "Emma Employee"},
		{"eli@acme.test", "Eli Employee"},
	} {
		if _, err := seedUser(tx, company.ID, e.email, e.name, coreUser.RoleEmployee, &manager.ID, hash); err != nil {
			return err
		}
	}

	categories := []struct {
		Name string
		Desc string
	}{
		{"Travel", "Flights, trains and hotels"},
		{"Meals", "Meals and entertainment"},
		{"Office", "Office supplies and equipment"},
		{"Other", "Anything else"},
	}

	var travelID int64
	for _, c := range categories {
		row := categoryDatamodel.ExpenseCategory{CompanyID: company.ID, Name: c.Name, Description: c.Desc, IsActive: true}
		if err := tx.Where(categoryDatamodel.ExpenseCategory{CompanyID: company.ID, Name: c.Name}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
		if c.Name == "Travel" {
			travelID = row.ID
		}
		fmt.Printf("Seeded expense category: %s\n", c.Name)
	}

	rule := approvalDatamodel.ApprovalRule{
		CompanyID:  company.ID,
		CategoryID: &travelID,
		Name:       "Travel needs manager then admin",
		Approvers:  approvalDatamodel.IDList{manager.ID, admin.ID},
	}
	if err := tx.Where(approvalDatamodel.ApprovalRule{CompanyID: company.ID, Name: rule.Name}).FirstOrCreate(&rule).Error; err != nil {
		return fmt.Errorf("seed approval rule: %w", err)
	}
	fmt.Println("Seeded approval rule:", rule.Name)

	return nil
}

func seedUser(tx *gorm.DB, companyID int64, email, name string, role coreUser.Role, managerID *int64, hash string) (*userDatamodel.User, error) {
	var existing userDatamodel.User
	err := tx.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Println("user already exists:", email)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user %s: %w", email, err)
	}

	u := &userDatamodel.User{
		CompanyID:    companyID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role.String(),
		ManagerID:    managerID,
		IsActive:     true,
	}
	if err := tx.Create(u).Error; err != nil {
		return nil, fmt.Errorf("insert user %s: %w", email, err)
	}
	fmt.Printf("Seeded %s user: %s\n", role, email)
	return u, nil
}
