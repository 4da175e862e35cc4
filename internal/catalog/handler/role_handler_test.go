package handler

import (
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vastralabs/karkhana/internal/catalog/repository"
	"github.com/vastralabs/karkhana/internal/catalog/service"
	"github.com/vastralabs/karkhana/internal/catalog/testutil"
	"go.uber.org/zap"
)

func setupRoleRoutes(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svcs := service.NewServices(db, repos, nil, zap.NewNop())
	handlers := NewHandlers(svcs)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/component-roles", handlers.Role.List)
	api.GET("/component-roles/:id", handlers.Role.Get)
	api.POST("/component-roles", handlers.Role.Create)
	api.PUT("/component-roles/:id", handlers.Role.Update)
	return r
}

func TestRoleEndpointsRequireAuth(t *testing.T) {
	r := setupRoleRoutes(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/component-roles", nil, "")
	if w.Code != 401 {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestCreateAndGetRole(t *testing.T) {
	r := setupRoleRoutes(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "POST", "/api/v1/component-roles", map[string]interface{}{
		"code":             "main_fabric",
		"name":             "Main Fabric",
		"component_type":   "FABRIC",
		"required":         true,
		"default_quantity": 1.5,
		"default_unit":     "metres",
	}, token)
	if w.Code != 201 {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	roleID := data["id"].(string)
	if data["code"] != "main_fabric" {
		t.Errorf("Expected code main_fabric, got %v", data["code"])
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/component-roles/"+roleID, nil, token)
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	// the same code under the same component type is taken
	w = testutil.DoRequest(r, "POST", "/api/v1/component-roles", map[string]interface{}{
		"code":           "main_fabric",
		"name":           "Main Fabric Again",
		"component_type": "FABRIC",
	}, token)
	if w.Code != 409 {
		t.Errorf("Expected 409 for duplicate code, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != 40900 {
		t.Errorf("Expected envelope code 40900, got %v", resp["code"])
	}
}

func TestGetUnknownRole(t *testing.T) {
	r := setupRoleRoutes(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/component-roles/no-such-role", nil, testutil.DefaultTestToken())
	if w.Code != 404 {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != 40400 {
		t.Errorf("Expected envelope code 40400, got %v", resp["code"])
	}
}

func TestListRolesFilteredByType(t *testing.T) {
	r := setupRoleRoutes(t)
	token := testutil.DefaultTestToken()

	for _, role := range []map[string]interface{}{
		{"code": "main_fabric", "name": "Main Fabric", "component_type": "FABRIC"},
		{"code": "buttons", "name": "Buttons", "component_type": "TRIM"},
	} {
		if w := testutil.DoRequest(r, "POST", "/api/v1/component-roles", role, token); w.Code != 201 {
			t.Fatalf("Expected 201 seeding role, got %d", w.Code)
		}
	}

	w := testutil.DoRequest(r, "GET", "/api/v1/component-roles?component_type=TRIM", nil, token)
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 trim role, got %d", len(items))
	}
	if items[0].(map[string]interface{})["code"] != "buttons" {
		t.Errorf("Expected buttons, got %v", items[0])
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/component-roles?component_type=GLUE", nil, token)
	if w.Code != 400 {
		t.Errorf("Expected 400 for unknown component type, got %d", w.Code)
	}
}
