package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/assets"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/chat"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/checklists"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/claimsync"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/config"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/database"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/leads"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/organizations"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/projects"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/reimbursements"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/roles"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/tasks"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/users"

	_ "github.com/bmv-luizpaulo/bmvbackoffice-sub001/api/swagger"
)

// @title BMV Backoffice API
// @version 1.0
// @description Multi-tenant back-office with role-based access, project and task tracking, and HR workflows.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Connect(cfg.DBPath); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	defaultOrg, err := ensureDefaultOrgExists()
	if err != nil {
		log.Fatalf("Failed to ensure default organization exists: %v", err)
	}

	if err := ensureDefaultRolesExist(); err != nil {
		log.Fatalf("Failed to ensure default roles exist: %v", err)
	}

	if err := ensureAdminExists(cfg, defaultOrg); err != nil {
		log.Fatalf("Failed to ensure admin user exists: %v", err)
	}

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	db := database.GetDB()
	sync := claimsync.New(db)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "backoffice",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Organization management needs a login but no org scope
		orgsHandler := organizations.NewHandler(db)
		orgsHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// Everything below is scoped to the caller's active organization
		protected := api.Group("", auth.AuthMiddleware(), auth.OrgMiddleware(db))

		projectsHandler := projects.NewHandler(db)
		projectsHandler.RegisterRoutes(protected)

		tasksHandler := tasks.NewHandler(db)
		tasksHandler.RegisterRoutes(protected)

		leadsHandler := leads.NewHandler(db)
		leadsHandler.RegisterRoutes(protected)

		checklistsHandler := checklists.NewHandler(db)
		checklistsHandler.RegisterRoutes(protected)

		chatHandler := chat.NewHandler(db)
		chatHandler.RegisterRoutes(protected)

		assetsHandler := assets.NewHandler(db)
		assetsHandler.RegisterRoutes(protected)

		reimbursementsHandler := reimbursements.NewHandler(db)
		reimbursementsHandler.RegisterRoutes(protected)

		// Admin routes (manager role required)
		adminGroup := protected.Group("/admin")
		adminGroup.Use(auth.RequireManager())

		usersHandler := users.NewHandler(db, users.NewStore(db, sync))
		usersHandler.RegisterRoutes(adminGroup)

		rolesHandler := roles.NewHandler(db)
		rolesHandler.RegisterRoutes(adminGroup)

		assetsHandler.RegisterAdminRoutes(adminGroup)
		reimbursementsHandler.RegisterAdminRoutes(adminGroup)
	}

	log.Printf("Starting backoffice server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureDefaultOrgExists creates the default organization if it doesn't
// exist. New accounts are added to it on signup.
func ensureDefaultOrgExists() (*models.Organization, error) {
	db := database.GetDB()

	var defaultOrg models.Organization
	err := db.Where("is_default = ?", true).First(&defaultOrg).Error
	if err == nil {
		return &defaultOrg, nil
	}

	defaultOrg = models.Organization{
		Name:      "Backoffice",
		Slug:      "backoffice",
		IsDefault: true,
	}
	if err := db.Create(&defaultOrg).Error; err != nil {
		return nil, err
	}

	log.Printf("Created default organization: %s (ID: %d)", defaultOrg.Name, defaultOrg.ID)
	return &defaultOrg, nil
}

// ensureDefaultRolesExist seeds the Manager and Developer roles on first
// boot. Roles are data, so admins can add more later.
func ensureDefaultRolesExist() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.Role{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Role{
		{Name: "Manager", Description: "Full back-office access", IsManager: true},
		{Name: "Developer", Description: "Broad read access for engineering", IsDev: true},
	}
	for _, role := range defaults {
		if err := db.Create(&role).Error; err != nil {
			return err
		}
		log.Printf("Created default role: %s", role.Name)
	}
	return nil
}

// ensureAdminExists creates the bootstrap admin account if no manager
// exists yet, assigns it the Manager role and publishes its claims.
func ensureAdminExists(cfg config.App, defaultOrg *models.Organization) error {
	db := database.GetDB()

	var count int64
	err := db.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id AND roles.deleted_at IS NULL").
		Where("roles.is_manager = ?", true).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var managerRole models.Role
	if err := db.Where("is_manager = ?", true).First(&managerRole).Error; err != nil {
		return err
	}

	hashedPassword, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	adminUser := models.User{
		UID:          uuid.NewString(),
		Email:        cfg.AdminEmail,
		Name:         "Admin",
		PasswordHash: hashedPassword,
		Active:       true,
		RoleID:       &managerRole.ID,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	membership := models.OrganizationMembership{
		OrganizationID: defaultOrg.ID,
		UserID:         adminUser.ID,
		Role:           models.OrgRoleAdmin,
	}
	if err := db.Create(&membership).Error; err != nil {
		return err
	}

	// Publish claims so the first login already carries the manager flag.
	if err := claimsync.New(db).Resync(&adminUser); err != nil {
		return err
	}

	log.Printf("Created default admin user: %s", cfg.AdminEmail)
	return nil
}
