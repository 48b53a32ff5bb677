package controllers

import (
	"log"

	"github.com/roxas19/DRP/config"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/services/access"
	"github.com/roxas19/DRP/utils"
	courseValidator "github.com/roxas19/DRP/validators/course"

	"github.com/gofiber/fiber/v2"
)

type resourceView struct {
	models.Resource
	FileURL string `json:"file_url,omitempty"`
}

func viewResource(r models.Resource) resourceView {
	return resourceView{Resource: r, FileURL: utils.GetFileURL(r.FilePath)}
}

func ListResources(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	db := database.Database.Db
	courseID := localUint(c, "course_id")
	if err := access.RequireEnrolled(db, user, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	module, err := findModule(db, courseID, localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	var resources []models.Resource
	if err := db.Where("module_id = ?", module.ID).Order("id asc").Find(&resources).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	views := make([]resourceView, len(resources))
	for i, r := range resources {
		views[i] = viewResource(r)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resources fetched successfully.", views)
}

func CreateResource(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedResource").(*courseValidator.ResourceRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	courseID := localUint(c, "course_id")
	if err := access.RequireInstructor(db, user, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	module, err := findModule(db, courseID, localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	resource := models.Resource{
		ModuleID:    module.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		Link:        reqData.Link,
	}
	if reqData.HasFile {
		if resource.FilePath, err = saveResourceFile(c); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save file!", nil)
		}
	}

	if err := db.Create(&resource).Error; err != nil {
		utils.RemoveUploadedFile(config.AppConfig.MediaRoot, resource.FilePath)
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Resource created successfully.", viewResource(resource))
}

func UpdateResource(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedResource").(*courseValidator.ResourceRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	db := database.Database.Db
	courseID := localUint(c, "course_id")
	if err := access.RequireInstructor(db, user, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	module, err := findModule(db, courseID, localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	resource, err := findResource(db, module.ID, localUint(c, "resource_id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	if reqData.Title != "" {
		resource.Title = reqData.Title
	}
	if reqData.Description != "" {
		resource.Description = reqData.Description
	}
	if reqData.Link != "" {
		resource.Link = reqData.Link
	}
	oldFile := ""
	if reqData.HasFile {
		path, err := saveResourceFile(c)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save file!", nil)
		}
		oldFile, resource.FilePath = resource.FilePath, path
	}

	if err := db.Save(resource).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := utils.RemoveUploadedFile(config.AppConfig.MediaRoot, oldFile); err != nil {
		log.Printf("[RESOURCE] could not remove replaced file %s: %v", oldFile, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resource updated successfully.", viewResource(*resource))
}

func DeleteResource(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	db := database.Database.Db
	courseID := localUint(c, "course_id")
	if err := access.RequireInstructor(db, user, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	module, err := findModule(db, courseID, localUint(c, "week"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	resource, err := findResource(db, module.ID, localUint(c, "resource_id"))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	if err := db.Delete(resource).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := utils.RemoveUploadedFile(config.AppConfig.MediaRoot, resource.FilePath); err != nil {
		log.Printf("[RESOURCE] could not remove file %s: %v", resource.FilePath, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Resource deleted successfully.", nil)
}

func saveResourceFile(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", err
	}
	path, err := utils.SaveUploadedFile(fh, config.AppConfig.MediaRoot, "resources")
	if err != nil {
		log.Printf("[RESOURCE] Error saving upload: %v", err)
	}
	return path, err
}
