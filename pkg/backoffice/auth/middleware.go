package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyUserUID is the key for the opaque identity id in gin context
	ContextKeyUserUID = "user_uid"
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
	// ContextKeyIsManager is the key for the manager claim in gin context
	ContextKeyIsManager = "is_manager"
	// ContextKeyIsDev is the key for the dev claim in gin context
	ContextKeyIsDev = "is_dev"
	// ContextKeyOrgID is the key for organization ID in gin context
	ContextKeyOrgID = "organization_id"
	// ContextKeyOrgRole is the key for organization role in gin context
	ContextKeyOrgRole = "organization_role"
)

// AuthMiddleware validates JWT tokens and sets user info in context.
// The flags it sets come from the token, i.e. the claims as of the last
// mint - gates that need live role data use the perms resolver instead.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := ValidateToken(tokenString)
		if err != nil {
			if err == ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserUID, claims.UID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyIsManager, claims.IsManager)
		c.Set(ContextKeyIsDev, claims.IsDev)

		c.Next()
	}
}

// RequireManager middleware checks the manager claim on the token
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		isManager, exists := c.Get(ContextKeyIsManager)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if isManager != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "Manager access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireElevated middleware checks for either the manager or dev claim
func RequireElevated() gin.HandlerFunc {
	return func(c *gin.Context) {
		isManager, mok := c.Get(ContextKeyIsManager)
		isDev, dok := c.Get(ContextKeyIsDev)
		if !mok && !dok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if isManager != true && isDev != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "Elevated access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUserUID returns the opaque identity id from the gin context
func GetUserUID(c *gin.Context) (string, bool) {
	uid, exists := c.Get(ContextKeyUserUID)
	if !exists {
		return "", false
	}
	return uid.(string), true
}

// GetEmail returns the email from the gin context
func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ContextKeyEmail)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetOrgID returns the organization ID from the gin context
func GetOrgID(c *gin.Context) (uint, bool) {
	orgID, exists := c.Get(ContextKeyOrgID)
	if !exists {
		return 0, false
	}
	return orgID.(uint), true
}

// GetOrgRole returns the organization role from the gin context
func GetOrgRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(ContextKeyOrgRole)
	if !exists {
		return "", false
	}
	return role.(string), true
}

// OrgMiddleware validates the X-Organization-ID header and sets org context.
// The user must be a member of the specified organization.
// If no header is provided, it defaults to the default organization.
func OrgMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextKeyUserID)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		// Get organization ID from header or query param
		orgIDStr := c.GetHeader("X-Organization-ID")
		if orgIDStr == "" {
			orgIDStr = c.Query("org_id")
		}

		var orgID uint
		var membership models.OrganizationMembership

		if orgIDStr != "" {
			// Parse the provided org ID
			parsed, err := strconv.ParseUint(orgIDStr, 10, 32)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID"})
				c.Abort()
				return
			}
			orgID = uint(parsed)

			// Verify membership
			if err := db.Where("user_id = ? AND organization_id = ?", userID, orgID).First(&membership).Error; err != nil {
				c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this organization"})
				c.Abort()
				return
			}
		} else {
			// Default organization
			var defaultOrg models.Organization
			if err := db.Where("is_default = ?", true).First(&defaultOrg).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Default organization not found"})
				c.Abort()
				return
			}
			orgID = defaultOrg.ID

			// Check if user is a member of the default org, create membership if not
			if err := db.Where("user_id = ? AND organization_id = ?", userID, orgID).First(&membership).Error; err != nil {
				// User not yet a member of default org - auto-add them as member
				membership = models.OrganizationMembership{
					OrganizationID: orgID,
					UserID:         userID.(uint),
					Role:           models.OrgRoleMember,
				}
				if err := db.Create(&membership).Error; err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add user to default organization"})
					c.Abort()
					return
				}
			}
		}

		// Set organization context
		c.Set(ContextKeyOrgID, orgID)
		c.Set(ContextKeyOrgRole, string(membership.Role))

		c.Next()
	}
}
