package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/phygital/internal/assets"
	"github.com/phygital/internal/db"
	"github.com/phygital/internal/music"
	"gorm.io/gorm"

	_ "golang.org/x/image/webp"
)

var (
	ErrEventNotFound = errors.New("timeline event not found")
	ErrFieldInvalid  = errors.New("field value is invalid")
)

// LayoutSections 是页面可排序版块的全集，layout_order 始终是它的子集。
var LayoutSections = []string{"message", "gallery", "timeline", "music"}

const (
	FontSizeSmall  = "small"
	FontSizeMedium = "medium"
	FontSizeLarge  = "large"

	AspectSquare = "square"
	AspectStory  = "story"
)

// 新照片排在所有现存照片之后使用的排序步进
const displayOrderGap = 1000

// AssetUploader is the narrow seam the reconciler needs from the asset
// store client.
type AssetUploader interface {
	Upload(ctx context.Context, filename, contentType string, data io.Reader) (assets.File, error)
	AssetURL(file assets.File) string
}

// Upload carries one file submitted with an edit request.
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// EditRequest describes an incoming edit. String fields follow partial-update
// semantics: empty means absent, the stored value is kept. MusicURL is a
// pointer because an explicitly submitted empty value clears the stored link,
// while an absent field leaves it unchanged.
type EditRequest struct {
	Title           string
	Message         string
	BackgroundColor string
	Theme           string
	FontStyle       string
	FontColor       string
	TitleColor      string
	FontSize        string
	AspectRatio     string
	GalleryTitle    string
	LayoutOrder     string
	MusicURL        *string
	NewCredential   string
	NewEventDate    string
	NewEventTitle   string
	DeleteEventAt   *int
	DeletePhotoID   *uint
	PhotoOrders     map[uint]int
	Uploads         []Upload
}

// DeleteOnly reports whether the request carries a delete marker. Such a
// request performs exactly that deletion and ignores every other change in
// the same submission.
func (r EditRequest) DeleteOnly() bool {
	return r.DeletePhotoID != nil || r.DeleteEventAt != nil
}

// ReconcileService merges edit requests into persisted page state.
type ReconcileService struct {
	db       *gorm.DB
	pages    *PageService
	uploader AssetUploader
}

// NewReconcileService creates a ReconcileService instance.
func NewReconcileService(gdb *gorm.DB, pages *PageService, uploader AssetUploader) *ReconcileService {
	return &ReconcileService{db: gdb, pages: pages, uploader: uploader}
}

// Apply merges an edit request into the page identified by slug and commits
// the result in one transaction. A request with a delete marker performs only
// that deletion; otherwise every other change is applied in a single pass.
func (s *ReconcileService) Apply(ctx context.Context, slug string, req EditRequest) (*db.Page, error) {
	page, err := s.pages.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	if req.DeletePhotoID != nil {
		// 误删保护：不属于本页的照片 ID 静默忽略
		if _, err := s.pages.DeletePhoto(*req.DeletePhotoID, page.ID); err != nil {
			return nil, err
		}
		return page, nil
	}

	if req.DeleteEventAt != nil {
		return page, s.deleteTimelineEvent(page, *req.DeleteEventAt)
	}

	if err := validateEnums(req); err != nil {
		return nil, err
	}

	applyScalars(page, req)

	if credential := strings.TrimSpace(req.NewCredential); credential != "" {
		hash, err := HashCredential(credential)
		if err != nil {
			return nil, err
		}
		page.CredentialHash = hash
	}

	if req.MusicURL != nil {
		page.MusicURL = music.EnsureEmbedURL(*req.MusicURL)
	}

	if date, title := strings.TrimSpace(req.NewEventDate), strings.TrimSpace(req.NewEventTitle); date != "" && title != "" {
		page.Timeline = append(page.Timeline, db.TimelineEvent{
			ID:    uuid.New().String(),
			Date:  date,
			Title: title,
		})
		// 稳定排序：同一日期保持插入顺序
		sort.SliceStable(page.Timeline, func(i, j int) bool {
			return page.Timeline[i].Date < page.Timeline[j].Date
		})
	}

	reordered, err := s.reorderPhotos(page.ID, req.PhotoOrders)
	if err != nil {
		return nil, err
	}

	newPhotos, err := s.uploadPhotos(ctx, page.ID, req.Uploads)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		pages := NewPageService(tx)
		if err := pages.Save(page); err != nil {
			return err
		}
		for i := range reordered {
			if err := tx.Model(&db.Photo{}).
				Where("id = ? AND page_id = ?", reordered[i].ID, page.ID).
				Update("display_order", reordered[i].DisplayOrder).Error; err != nil {
				return err
			}
		}
		for i := range newPhotos {
			if err := tx.Create(&newPhotos[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return page, nil
}

// deleteTimelineEvent removes the event at a zero-based position in the
// current sorted list. Out-of-range positions leave the timeline unchanged.
func (s *ReconcileService) deleteTimelineEvent(page *db.Page, position int) error {
	if position < 0 || position >= len(page.Timeline) {
		return ErrEventNotFound
	}

	page.Timeline = append(page.Timeline[:position], page.Timeline[position+1:]...)

	return s.db.Transaction(func(tx *gorm.DB) error {
		return NewPageService(tx).Save(page)
	})
}

// reorderPhotos resolves the submitted (photo id, new order) pairs against
// the page's actual photos. Unknown or foreign ids reflect a stale client
// view and are silently skipped.
func (s *ReconcileService) reorderPhotos(pageID uint, orders map[uint]int) ([]db.Photo, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	photos, err := s.pages.SortedPhotos(pageID)
	if err != nil {
		return nil, err
	}

	var changed []db.Photo
	for i := range photos {
		if order, ok := orders[photos[i].ID]; ok && order != photos[i].DisplayOrder {
			photos[i].DisplayOrder = order
			changed = append(changed, photos[i])
		}
	}
	return changed, nil
}

// uploadPhotos sends each file to the asset store. A failed upload skips
// that file only; the rest of the batch and the surrounding save proceed.
func (s *ReconcileService) uploadPhotos(ctx context.Context, pageID uint, uploads []Upload) ([]db.Photo, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	if s.uploader == nil {
		log.Printf("reconcile: no asset uploader configured, skipping %d uploads", len(uploads))
		return nil, nil
	}

	nextOrder, err := s.nextDisplayOrder(pageID)
	if err != nil {
		return nil, err
	}

	var photos []db.Photo
	for _, upload := range uploads {
		if upload.Data == nil || strings.TrimSpace(upload.Filename) == "" {
			continue
		}

		data, err := io.ReadAll(upload.Data)
		if err != nil {
			log.Printf("reconcile: read upload %q failed: %v", upload.Filename, err)
			continue
		}

		file, err := s.uploader.Upload(ctx, upload.Filename, upload.ContentType, bytes.NewReader(data))
		if err != nil {
			log.Printf("reconcile: upload %q failed: %v", upload.Filename, err)
			continue
		}

		photo := db.Photo{
			PageID:       pageID,
			AssetID:      file.ID,
			AssetURL:     s.uploader.AssetURL(file),
			DisplayOrder: nextOrder,
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			photo.Width = cfg.Width
			photo.Height = cfg.Height
		}

		photos = append(photos, photo)
		nextOrder++
	}
	return photos, nil
}

// nextDisplayOrder returns a sentinel larger than any existing order so new
// photos land at the end of the gallery.
func (s *ReconcileService) nextDisplayOrder(pageID uint) (int, error) {
	var maxOrder int
	if err := s.db.Model(&db.Photo{}).
		Where("page_id = ?", pageID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}
	return maxOrder + displayOrderGap, nil
}

func applyScalars(page *db.Page, req EditRequest) {
	applyIfPresent(&page.Title, req.Title)
	applyIfPresent(&page.Message, req.Message)
	applyIfPresent(&page.BackgroundColor, req.BackgroundColor)
	applyIfPresent(&page.Theme, req.Theme)
	applyIfPresent(&page.FontStyle, req.FontStyle)
	applyIfPresent(&page.FontColor, req.FontColor)
	applyIfPresent(&page.TitleColor, req.TitleColor)
	applyIfPresent(&page.GalleryTitle, req.GalleryTitle)

	if size := normalizeToken(req.FontSize); size != "" {
		page.FontSize = size
	}
	if aspect := normalizeToken(req.AspectRatio); aspect != "" {
		page.AspectRatio = aspect
	}
	if layout := normalizeLayoutOrder(req.LayoutOrder); layout != "" {
		page.LayoutOrder = layout
	}
}

func applyIfPresent(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}

func validateEnums(req EditRequest) error {
	if size := normalizeToken(req.FontSize); size != "" {
		if size != FontSizeSmall && size != FontSizeMedium && size != FontSizeLarge {
			return ErrFieldInvalid
		}
	}
	if aspect := normalizeToken(req.AspectRatio); aspect != "" {
		if aspect != AspectSquare && aspect != AspectStory {
			return ErrFieldInvalid
		}
	}
	return nil
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// normalizeLayoutOrder keeps only known section identifiers, preserving the
// submitted order and dropping duplicates, so layout_order stays a subset of
// LayoutSections.
func normalizeLayoutOrder(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	known := make(map[string]bool, len(LayoutSections))
	for _, section := range LayoutSections {
		known[section] = true
	}

	seen := make(map[string]bool)
	var kept []string
	for _, part := range strings.Split(trimmed, ",") {
		section := normalizeToken(part)
		if known[section] && !seen[section] {
			kept = append(kept, section)
			seen[section] = true
		}
	}
	return strings.Join(kept, ",")
}
