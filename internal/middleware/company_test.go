package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/repository"
	"github.com/joshnosal/tip-driver-api/internal/service"
)

func setupCompanyRouter(t *testing.T, role domain.Role) (*gin.Engine, *domain.Company) {
	t.Helper()
	repo := repository.NewMemoryCompanyRepository()
	company := domain.NewCompany("Acme", "admin_1")
	company.Grant("basic_1", domain.RoleBasic)
	if err := repo.Create(context.Background(), company); err != nil {
		t.Fatal(err)
	}

	auth := service.NewAuthService(repo)
	router := gin.New()
	router.GET("/scoped",
		func(c *gin.Context) {
			// Stand-in for the auth middleware.
			if userID := c.GetHeader("X-Test-User"); userID != "" {
				c.Set(ContextKeyUserID, userID)
			}
			c.Next()
		},
		CompanyContext(auth, role),
		func(c *gin.Context) {
			resolved, ok := GetCompany(c)
			if !ok {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "no company in context"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"id": resolved.ID})
		})
	return router, company
}

func doScoped(router *gin.Engine, userID, companyID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	if companyID != "" {
		req.Header.Set(HeaderCompanyID, companyID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCompanyContext(t *testing.T) {
	t.Run("admin passes admin gate", func(t *testing.T) {
		router, company := setupCompanyRouter(t, domain.RoleAdmin)
		w := doScoped(router, "admin_1", company.ID)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("basic user fails admin gate", func(t *testing.T) {
		router, company := setupCompanyRouter(t, domain.RoleAdmin)
		w := doScoped(router, "basic_1", company.ID)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("basic user passes member gate", func(t *testing.T) {
		router, company := setupCompanyRouter(t, "")
		w := doScoped(router, "basic_1", company.ID)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("outsider rejected", func(t *testing.T) {
		router, company := setupCompanyRouter(t, "")
		w := doScoped(router, "stranger", company.ID)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("missing company header rejected", func(t *testing.T) {
		router, _ := setupCompanyRouter(t, "")
		w := doScoped(router, "admin_1", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	// Unknown companies read as 401, not 404: the route must not reveal
	// whether a company id exists.
	t.Run("unknown company rejected", func(t *testing.T) {
		router, _ := setupCompanyRouter(t, "")
		w := doScoped(router, "admin_1", "ghost")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		router, company := setupCompanyRouter(t, "")
		w := doScoped(router, "", company.ID)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}
