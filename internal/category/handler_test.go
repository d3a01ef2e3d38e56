package category_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/expense-reimbursement/internal/auth"
	"github.com/frahmantamala/expense-reimbursement/internal/category"
	categoryPostgres "github.com/frahmantamala/expense-reimbursement/internal/category/postgres"
	"github.com/frahmantamala/expense-reimbursement/internal/transport"
	"github.com/frahmantamala/expense-reimbursement/pkg/logger"
)

type handlerCategory struct {
	ID          int64     `gorm:"primaryKey"`
	CompanyID   int64     `gorm:"column:company_id;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (handlerCategory) TableName() string {
	return "expense_categories"
}

var _ = Describe("Category Handler Integration", func() {
	var (
		router  *chi.Mux
		handler *category.Handler
		admin   *auth.User
	)

	withUser := func(req *http.Request, u *auth.User) *http.Request {
		return req.WithContext(auth.ContextWithUser(req.Context(), u))
	}

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&handlerCategory{})).To(Succeed())

		repo := categoryPostgres.NewCategoryRepository(db)
		service := category.NewService(repo, logger.Discard())
		handler = category.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
		admin = &auth.User{ID: 1, CompanyID: 1, Role: "admin"}

		router = chi.NewRouter()
		router.Get("/categories", handler.GetCategories)
		router.Post("/categories", handler.CreateCategory)
		router.Delete("/categories/{id}", handler.DeactivateCategory)
	})

	It("should create and list categories", func() {
		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Meals","description":"Team lunches"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withUser(req, admin))
		Expect(w.Code).To(Equal(http.StatusCreated))

		req = httptest.NewRequest(http.MethodGet, "/categories", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, withUser(req, admin))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Categories).To(HaveLen(1))
		Expect(response.Categories[0].Name).To(Equal("Meals"))
	})

	It("should answer 409 for duplicates", func() {
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Meals"}`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, withUser(req, admin))
			if i == 1 {
				Expect(w.Code).To(Equal(http.StatusConflict))
			}
		}
	})

	It("should deactivate a category", func() {
		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Meals"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withUser(req, admin))
		Expect(w.Code).To(Equal(http.StatusCreated))

		req = httptest.NewRequest(http.MethodDelete, "/categories/1", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, withUser(req, admin))
		Expect(w.Code).To(Equal(http.StatusNoContent))

		req = httptest.NewRequest(http.MethodGet, "/categories", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, withUser(req, admin))
		Expect(w.Body.String()).To(ContainSubstring(`"categories":[]`))
	})

	It("should reject anonymous callers", func() {
		req := httptest.NewRequest(http.MethodGet, "/categories", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
