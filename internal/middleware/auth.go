package middleware

import (
	"net/http"
	"strings"

	"restopos/internal/apierror"
	"restopos/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
// Tokens are issued by the central auth service; this backend only
// validates them.
type JWTClaims struct {
	UserID     string `json:"user_id"`
	SucursalID string `json:"sucursal_id"`
	DeviceID   string `json:"device_id"`
	Rol        string `json:"rol"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticación requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// Scope builds the per-request operating scope from the validated claims
// plus the register selected via the X-Caja-ID header (optional on routes
// that don't act on a register).
func Scope(c *gin.Context) (dto.RequestScope, error) {
	claims := GetClaims(c)
	if claims == nil {
		return dto.RequestScope{}, apierror.Validation("sesión no válida")
	}

	usuarioID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return dto.RequestScope{}, apierror.Validation("user_id inválido en el token")
	}
	sucursalID, err := uuid.Parse(claims.SucursalID)
	if err != nil {
		return dto.RequestScope{}, apierror.Validation("sucursal_id inválido en el token")
	}

	scope := dto.RequestScope{
		SucursalID: sucursalID,
		UsuarioID:  usuarioID,
		DeviceID:   claims.DeviceID,
	}

	if raw := c.GetHeader("X-Caja-ID"); raw != "" {
		cajaID, err := uuid.Parse(raw)
		if err != nil {
			return dto.RequestScope{}, apierror.Validation("X-Caja-ID inválido")
		}
		scope.CajaID = cajaID
	}

	return scope, nil
}
