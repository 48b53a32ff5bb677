package validators

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title    string `json:"title" validate:"required,max=5"`
	CourseID uint   `json:"course_id" validate:"required,gt=0"`
}

func TestStructReportsJSONNames(t *testing.T) {
	errs := Struct(&sample{Title: "too long"})
	assert.Equal(t, map[string]string{
		"title":     "title must be at most 5 characters long!",
		"course_id": "course_id is required!",
	}, errs)

	assert.Nil(t, Struct(&sample{Title: "ok", CourseID: 1}))
}

func TestParamsAndPaginate(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:id", Params("id"), Paginate(), func(c *fiber.Ctx) error {
		p := c.Locals("pagination").(Pagination)
		return c.JSON(fiber.Map{"id": c.Locals("id"), "offset": p.Offset(), "limit": p.Limit})
	})

	get := func(path string) (int, map[string]interface{}) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		var out map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	status, out := get("/items/7?page=3&limit=10")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(7), out["id"])
	assert.Equal(t, float64(20), out["offset"])

	status, out = get("/items/7")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(20), out["limit"])

	status, _ = get("/items/0")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = get("/items/abc")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = get("/items/7?limit=500")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestPaginateByDefault(t *testing.T) {
	app := fiber.New()
	app.Get("/", PaginateBy(10), func(c *fiber.Ctx) error {
		return c.JSON(c.Locals("pagination"))
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?page=2", nil), -1)
	require.NoError(t, err)
	var p Pagination
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 10, p.Offset())
}

func TestBody(t *testing.T) {
	app := fiber.New()
	app.Post("/", Body[sample]("req"), func(c *fiber.Ctx) error {
		return c.JSON(c.Locals("req"))
	})
	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, post(`{"title":"hi","course_id":3}`))
	assert.Equal(t, http.StatusUnprocessableEntity, post(`{"title":"hi"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"title":`))
}
