package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/phygital/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound  = errors.New("page not found")
	ErrDuplicateSlug = errors.New("slug already exists")
	ErrSlugInvalid   = errors.New("slug is invalid")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{2,64}$`)

// PageService owns persisted page records and their photo collections.
type PageService struct {
	db *gorm.DB
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// NormalizeSlug lowercases and trims a user-supplied slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// PageInput represents fields accepted when provisioning a page.
type PageInput struct {
	Title           string
	Message         string
	BackgroundColor string
	Credential      string
}

// GetBySlug fetches a page for a given slug after normalization.
// A missing page yields ErrPageNotFound, never a raw gorm error.
func (s *PageService) GetBySlug(slug string) (*db.Page, error) {
	var page db.Page
	if err := s.db.Where("slug = ?", NormalizeSlug(slug)).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Create provisions a new page. Slug uniqueness is enforced by the unique
// index, so two concurrent creations cannot both succeed.
func (s *PageService) Create(slug string, input PageInput) (*db.Page, error) {
	normalized := NormalizeSlug(slug)
	if !slugPattern.MatchString(normalized) {
		return nil, ErrSlugInvalid
	}

	page := db.Page{
		Slug:            normalized,
		Title:           strings.TrimSpace(input.Title),
		Message:         strings.TrimSpace(input.Message),
		BackgroundColor: strings.TrimSpace(input.BackgroundColor),
		FontSize:        "medium",
		AspectRatio:     "square",
		Timeline:        db.TimelineList{},
	}
	if page.BackgroundColor == "" {
		page.BackgroundColor = "#FF6B8B"
	}

	if credential := strings.TrimSpace(input.Credential); credential != "" {
		hash, err := HashCredential(credential)
		if err != nil {
			return nil, err
		}
		page.CredentialHash = hash
	}

	if err := s.db.Create(&page).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &page, nil
}

// Save persists all scalar fields and the timeline of an existing page.
func (s *PageService) Save(page *db.Page) error {
	result := s.db.Model(&db.Page{}).Where("id = ?", page.ID).
		Select("title", "message", "background_color", "credential_hash",
			"theme", "font_style", "font_color", "title_color", "font_size",
			"aspect_ratio", "gallery_title", "music_url", "layout_order", "timeline").
		Updates(page)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPageNotFound
	}
	return nil
}

// SortedPhotos returns a page's photos in display order, ties broken by id.
func (s *PageService) SortedPhotos(pageID uint) ([]db.Photo, error) {
	var photos []db.Photo
	if err := s.db.Where("page_id = ?", pageID).
		Order("display_order asc").Order("id asc").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// DeletePhoto removes a photo only when it belongs to the given page.
// A missing or foreign photo is a no-op reported as false, not an error,
// so guessed identifiers cannot touch another tenant's gallery.
func (s *PageService) DeletePhoto(photoID, pageID uint) (bool, error) {
	result := s.db.Where("id = ? AND page_id = ?", photoID, pageID).Delete(&db.Photo{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HashCredential derives a salted bcrypt hash from a plaintext credential.
func HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyCredential compares a submitted credential against the stored hash
// with bcrypt's constant-time comparison. A page without a credential is
// open: any input is accepted.
func VerifyCredential(page *db.Page, input string) bool {
	if page == nil {
		return false
	}
	if strings.TrimSpace(page.CredentialHash) == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(page.CredentialHash), []byte(input)) == nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
