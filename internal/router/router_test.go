package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phygital/internal/assets"
	"github.com/phygital/internal/db"
	"github.com/phygital/internal/handler"
	"github.com/phygital/internal/music"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&db.Page{}, &db.Photo{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	api := handler.NewAPI(gdb, assets.NewClient("", ""), music.NewClient("", ""), "")
	// 模板 glob 不匹配任何文件，路由测试只覆盖 JSON 端点
	return SetupRouter(api, "test-secret", "")
}

func TestRouteWiring(t *testing.T) {
	router := setupRouterTest(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/music-search?q=x", http.StatusBadRequest},
		{http.MethodPost, "/api/pages", http.StatusForbidden},
		{http.MethodPost, "/someone/reset-credential", http.StatusForbidden},
		{http.MethodPost, "/api/music-search", http.StatusNotFound},
	}

	for _, tt := range tests {
		request := httptest.NewRequest(tt.method, tt.path, nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		if recorder.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, recorder.Code)
		}
	}
}

func TestDashboardRequiresLogin(t *testing.T) {
	router := setupRouterTest(t)

	request := httptest.NewRequest(http.MethodGet, "/someone/dashboard", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/someone/login" {
		t.Fatalf("expected redirect to login, got %q", location)
	}
}
