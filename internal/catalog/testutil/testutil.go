package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/middleware"
)

const (
	TestSchema = "test_karkhana"
	JWTSecret  = "karkhana-jwt-secret-key-2026"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "karkhana")
	password := getEnv("DB_PASSWORD", "karkhana")
	dbname := getEnv("DB_NAME", "karkhana")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in the DSN so all pooled connections use the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.ComponentRole{},
		&entity.Product{},
		&entity.Variation{},
		&entity.SKU{},
		&entity.Fabric{},
		&entity.FabricColour{},
		&entity.TrimItem{},
		&entity.ServiceItem{},
		&entity.ProductBOMTemplate{},
		&entity.VariationBOMLine{},
		&entity.SKUBOMLine{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string, roles, permissions []string) string {
	if roles == nil {
		roles = []string{}
	}
	if permissions == nil {
		permissions = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"perms": permissions,
		"iss":   "karkhana",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken(
		"test-user-001",
		"Test Admin",
		"admin@test.com",
		[]string{"admin"},
		[]string{"*"},
	)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedRole creates a component role
func SeedRole(t *testing.T, db *gorm.DB, code, componentType string) *entity.ComponentRole {
	t.Helper()
	role := &entity.ComponentRole{
		ID:              uuid.New().String()[:32],
		Code:            code,
		Name:            code,
		ComponentType:   componentType,
		DefaultQuantity: 1,
		DefaultUnit:     "metres",
	}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("Failed to seed role: %v", err)
	}
	return role
}

// SeedProduct creates an active product
func SeedProduct(t *testing.T, db *gorm.DB, code, name string) *entity.Product {
	t.Helper()
	product := &entity.Product{
		ID:     uuid.New().String()[:32],
		Code:   code,
		Name:   name,
		Status: entity.StatusActive,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return product
}

// SeedVariation creates an active variation under a product
func SeedVariation(t *testing.T, db *gorm.DB, productID, code string) *entity.Variation {
	t.Helper()
	variation := &entity.Variation{
		ID:        uuid.New().String()[:32],
		ProductID: productID,
		Colour:    code,
		Code:      code,
		Status:    entity.StatusActive,
	}
	if err := db.Create(variation).Error; err != nil {
		t.Fatalf("Failed to seed variation: %v", err)
	}
	return variation
}

// SeedSKU creates an active SKU under a variation
func SeedSKU(t *testing.T, db *gorm.DB, variationID, size string) *entity.SKU {
	t.Helper()
	sku := &entity.SKU{
		ID:          uuid.New().String()[:32],
		VariationID: variationID,
		Code:        fmt.Sprintf("sku-%s-%s", size, uuid.New().String()[:6]),
		Size:        size,
		Status:      entity.StatusActive,
	}
	if err := db.Create(sku).Error; err != nil {
		t.Fatalf("Failed to seed SKU: %v", err)
	}
	return sku
}

// SeedFabricWithColour creates a fabric and one colour, returning both
func SeedFabricWithColour(t *testing.T, db *gorm.DB, name string, costPerUnit float64) (*entity.Fabric, *entity.FabricColour) {
	t.Helper()
	fabric := &entity.Fabric{
		ID:          uuid.New().String()[:32],
		Code:        fmt.Sprintf("fab-%s", uuid.New().String()[:6]),
		Name:        name,
		CostPerUnit: costPerUnit,
	}
	if err := db.Create(fabric).Error; err != nil {
		t.Fatalf("Failed to seed fabric: %v", err)
	}
	colour := &entity.FabricColour{
		ID:       uuid.New().String()[:32],
		FabricID: fabric.ID,
		Colour:   name + " colour",
		Status:   entity.StatusActive,
	}
	if err := db.Create(colour).Error; err != nil {
		t.Fatalf("Failed to seed fabric colour: %v", err)
	}
	return fabric, colour
}
