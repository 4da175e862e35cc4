package handler

import (
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogrepo "github.com/vastralabs/karkhana/internal/catalog/repository"
	catalogsvc "github.com/vastralabs/karkhana/internal/catalog/service"
	"github.com/vastralabs/karkhana/internal/catalog/testutil"
	"github.com/vastralabs/karkhana/internal/forecast/repository"
	"github.com/vastralabs/karkhana/internal/forecast/service"
	ordentity "github.com/vastralabs/karkhana/internal/orders/entity"
)

func setupForecastRoutes(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	if err := db.AutoMigrate(&ordentity.Order{}, &ordentity.OrderItem{}); err != nil {
		t.Fatalf("Failed to migrate order tables: %v", err)
	}
	repos := catalogrepo.NewRepositories(db)
	catSvcs := catalogsvc.NewServices(db, repos, nil, zap.NewNop())
	svc := service.NewForecastService(repository.NewDemandRepository(db), catSvcs.Resolver, repos.Product, nil, zap.NewNop())
	handlers := NewHandlers(svc)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/forecast/demand", handlers.Forecast.GetDemand)
	return r
}

func TestForecastEndpointRequiresAuth(t *testing.T) {
	r := setupForecastRoutes(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/forecast/demand", nil, "")
	if w.Code != 401 {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestGetDemandValidatesWeeks(t *testing.T) {
	r := setupForecastRoutes(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "GET", "/api/v1/forecast/demand?weeks=abc", nil, token)
	if w.Code != 400 {
		t.Errorf("Expected 400 for non-numeric weeks, got %d", w.Code)
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/forecast/demand?weeks=99", nil, token)
	if w.Code != 400 {
		t.Errorf("Expected 400 for out-of-range weeks, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != 40000 {
		t.Errorf("Expected envelope code 40000, got %v", resp["code"])
	}
}

func TestGetDemandEmptyData(t *testing.T) {
	r := setupForecastRoutes(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/forecast/demand", nil, testutil.DefaultTestToken())
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if weeks, _ := data["forecast_weeks"].(float64); int(weeks) != 8 {
		t.Errorf("Expected default 8 forecast weeks, got %v", data["forecast_weeks"])
	}
}
