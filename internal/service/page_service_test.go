package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/phygital/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:page-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
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
	return gdb
}

func TestCreateAndFindBySlug(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPageService(gdb)

	page, err := svc.Create("Alice ", PageInput{Title: "Alice 的页面", Credential: "secret"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if page.Slug != "alice" {
		t.Fatalf("expected normalized slug 'alice', got %q", page.Slug)
	}
	if page.CredentialHash == "" || page.CredentialHash == "secret" {
		t.Fatalf("expected hashed credential, got %q", page.CredentialHash)
	}

	found, err := svc.GetBySlug("  ALICE ")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if found.Slug != "alice" {
		t.Fatalf("expected slug 'alice', got %q", found.Slug)
	}
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPageService(gdb)

	if _, err := svc.Create("bob", PageInput{}); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	if _, err := svc.Create("BOB", PageInput{}); !errors.Is(err, ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}

	var count int64
	gdb.Model(&db.Page{}).Where("slug = ?", "bob").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one row for slug 'bob', got %d", count)
	}
}

func TestCreateRejectsInvalidSlug(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPageService(gdb)

	for _, slug := range []string{"", "a", "has space", "héllo", "a/b", "under_score"} {
		if _, err := svc.Create(slug, PageInput{}); !errors.Is(err, ErrSlugInvalid) {
			t.Fatalf("slug %q: expected ErrSlugInvalid, got %v", slug, err)
		}
	}
}

func TestGetBySlugNotFound(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPageService(gdb)

	if _, err := svc.GetBySlug("missing"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestSaveMissingPage(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPageService(gdb)

	page := &db.Page{Model: gorm.Model{ID: 999}, Title: "ghost"}
	if err := svc.Save(page); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestSortedPhotosOrder(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPageService(gdb)

	page, err := svc.Create("carol", PageInput{})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// 顺序打乱插入，同序号按 id 稳定排序
	for _, photo := range []db.Photo{
		{PageID: page.ID, AssetID: "c", AssetURL: "u3", DisplayOrder: 30},
		{PageID: page.ID, AssetID: "a", AssetURL: "u1", DisplayOrder: 10},
		{PageID: page.ID, AssetID: "b", AssetURL: "u2", DisplayOrder: 10},
	} {
		p := photo
		if err := gdb.Create(&p).Error; err != nil {
			t.Fatalf("create photo: %v", err)
		}
	}

	photos, err := svc.SortedPhotos(page.ID)
	if err != nil {
		t.Fatalf("SortedPhotos returned error: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(photos))
	}
	if photos[0].DisplayOrder != 10 || photos[1].DisplayOrder != 10 || photos[2].DisplayOrder != 30 {
		t.Fatalf("unexpected order: %v %v %v", photos[0].DisplayOrder, photos[1].DisplayOrder, photos[2].DisplayOrder)
	}
	if photos[0].ID > photos[1].ID {
		t.Fatalf("expected ties broken by id ascending")
	}
}

func TestDeletePhotoOwnership(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewPageService(gdb)

	pageA, _ := svc.Create("page-a", PageInput{})
	pageB, _ := svc.Create("page-b", PageInput{})

	photo := db.Photo{PageID: pageA.ID, AssetID: "x", AssetURL: "u"}
	if err := gdb.Create(&photo).Error; err != nil {
		t.Fatalf("create photo: %v", err)
	}

	// 别的页面拿着猜到的 id 删不掉
	deleted, err := svc.DeletePhoto(photo.ID, pageB.ID)
	if err != nil {
		t.Fatalf("DeletePhoto returned error: %v", err)
	}
	if deleted {
		t.Fatal("expected foreign photo delete to be a no-op")
	}

	var count int64
	gdb.Model(&db.Photo{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected photo to survive, count=%d", count)
	}

	deleted, err = svc.DeletePhoto(photo.ID, pageA.ID)
	if err != nil {
		t.Fatalf("DeletePhoto returned error: %v", err)
	}
	if !deleted {
		t.Fatal("expected owner delete to succeed")
	}
}

func TestVerifyCredential(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	page := &db.Page{CredentialHash: string(hash)}
	if !VerifyCredential(page, "open-sesame") {
		t.Fatal("expected correct credential to verify")
	}
	if VerifyCredential(page, "wrong") {
		t.Fatal("expected wrong credential to fail")
	}

	// 未设置密码的页面视为开放
	if !VerifyCredential(&db.Page{}, "anything") {
		t.Fatal("expected page without credential to be open")
	}
	if VerifyCredential(nil, "anything") {
		t.Fatal("expected nil page to fail")
	}
}
