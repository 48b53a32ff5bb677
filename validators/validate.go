// Package validators holds the request-shape helpers shared by the
// per-area validator packages.
package validators

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/roxas19/DRP/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates v and returns one message per failing field, or nil.
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "email":
		return "Invalid email!"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long!", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long!", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s!", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL!", fe.Field())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// Body parses the JSON (or form) body into a fresh T, validates it and stores
// it in c.Locals(key).
func Body[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errs := Struct(reqData); len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// Params parses each named route parameter as a positive integer and stores
// it in c.Locals under the same name as a uint.
func Params(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			raw := strings.TrimSpace(c.Params(name))
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, fmt.Sprintf("Invalid %s!", name), nil)
			}
			c.Locals(name, uint(id))
		}
		return c.Next()
	}
}

// Pagination reads page/limit query values, defaulting to 1 and 20 and
// capping limit at 100.
type Pagination struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

func Paginate() fiber.Handler {
	return PaginateBy(20)
}

// PaginateBy is Paginate with a different default page size.
func PaginateBy(defaultLimit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Pagination{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", defaultLimit)}
		errs := make(map[string]string)
		if p.Page < 1 {
			errs["page"] = "Page must be greater than 0!"
		}
		if p.Limit < 1 || p.Limit > 100 {
			errs["limit"] = "Limit must be between 1 and 100!"
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("pagination", p)
		return c.Next()
	}
}
