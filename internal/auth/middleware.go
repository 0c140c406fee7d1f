package auth

import (
	"fmt"
	"strings"

	"restoran-pos/internal/config"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxBranchIDKey = "branch_id"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token çözümlenemedi")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxBranchIDKey, claims.BranchID)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}

// BranchID - JWT'den gelen şube; super_admin için query/body fallback yok,
// handler kendi çözer.
func BranchID(c *fiber.Ctx) *uint {
	bVal := c.Locals(CtxBranchIDKey)
	if bPtr, ok := bVal.(*uint); ok {
		return bPtr
	}
	return nil
}

// ResolveBranchID - branch_admin/kasiyer/garson için JWT'den, super_admin
// için verilen opsiyonel değerden şube id çözer. Tüm şube-bazlı
// handler'ların ortak yardımcısı.
func ResolveBranchID(c *fiber.Ctx, explicit *uint) (uint, error) {
	roleVal := c.Locals(CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role != models.RoleSuperAdmin {
		bPtr := BranchID(c)
		if bPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi bulunamadı")
		}
		return *bPtr, nil
	}

	if explicit == nil || *explicit == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id zorunlu")
	}
	return *explicit, nil
}

// ResolveBranchIDFromQuery - super_admin için ?branch_id= query parametresi
func ResolveBranchIDFromQuery(c *fiber.Ctx) (uint, error) {
	var explicit *uint
	if bidStr := c.Query("branch_id"); bidStr != "" {
		var bid uint
		if _, err := fmt.Sscan(bidStr, &bid); err != nil || bid == 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "branch_id geçersiz")
		}
		explicit = &bid
	}
	return ResolveBranchID(c, explicit)
}

// UserID - JWT'den kullanıcı id
func UserID(c *fiber.Ctx) (uint, error) {
	userIDVal := c.Locals(CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	return userID, nil
}
