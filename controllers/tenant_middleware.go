package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	dbpkg "maritaca/db"
	"maritaca/models"

	"github.com/gin-gonic/gin"
)

const ctxTenantKey = "auth_tenant"
const tenantHeader = "X-Tenant-ID"

func loadTenant(c *gin.Context) (*models.Tenant, bool) {
	clientID := strings.TrimSpace(c.GetHeader(tenantHeader))
	if clientID == "" {
		RespondError(c, tenantHeader+" é obrigatório", http.StatusBadRequest)
		return nil, false
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return nil, false
	}

	var tenant models.Tenant
	if err := db.Where("client_id = ?", clientID).First(&tenant).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusUnauthorized)
		return nil, false
	}
	return &tenant, true
}

// TenantRequired resolves the tenant from the X-Tenant-ID header and checks
// the bearer credential against the tenant API token.
func TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := loadTenant(c)
		if !ok {
			c.Abort()
			return
		}

		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		token := strings.TrimSpace(h[len("Bearer "):])
		if subtle.ConstantTimeCompare([]byte(token), []byte(tenant.APIToken)) != 1 {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxTenantKey, *tenant)
		c.Next()
	}
}

// TenantFromHeader resolves the tenant from the header only (webhooks: o
// provider não manda nosso bearer, a autenticidade vem da assinatura ou do
// verify token).
func TenantFromHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := loadTenant(c)
		if !ok {
			c.Abort()
			return
		}
		c.Set(ctxTenantKey, *tenant)
		c.Next()
	}
}

func GetTenant(c *gin.Context) (models.Tenant, bool) {
	v, ok := c.Get(ctxTenantKey)
	if !ok {
		return models.Tenant{}, false
	}
	tenant, ok := v.(models.Tenant)
	return tenant, ok
}

// AdminRequired protege o CRUD de tenants com o token estático do servidor.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := strings.TrimSpace(conf.Security.AdminToken)
		if admin == "" {
			RespondError(c, "admin_token não configurado", http.StatusForbidden)
			c.Abort()
			return
		}
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		token := strings.TrimSpace(h[len("Bearer "):])
		if subtle.ConstantTimeCompare([]byte(token), []byte(admin)) != 1 {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
