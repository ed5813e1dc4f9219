package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/activity"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/chat"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/locks"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/notification"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/realtime"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/storage"
	"gorm.io/gorm"
)

// Limits hold the two upload ceilings. Chat attachments share bandwidth
// with live messaging, so their ceiling is tighter than the deal-files
// flow.
type Limits struct {
	DealFileBytes   int64
	ChatAttachBytes int64
}

type Service struct {
	DB         *gorm.DB
	Repository Repository
	Messages   chat.Repository
	Activity   *activity.Service
	Hub        realtime.Publisher
	Notifier   notification.Dispatcher
	Blobs      storage.BlobStore
	Locks      *locks.Keyed
	Limits     Limits
}

func NewService(db *gorm.DB, act *activity.Service, hub realtime.Publisher, notifier notification.Dispatcher, blobs storage.BlobStore, lk *locks.Keyed, limits Limits) *Service {
	return &Service{
		DB:         db,
		Repository: NewRepository(),
		Messages:   chat.NewRepository(),
		Activity:   act,
		Hub:        hub,
		Notifier:   notifier,
		Blobs:      blobs,
		Locks:      lk,
		Limits:     limits,
	}
}

// UploadParams describes one incoming file.
type UploadParams struct {
	Name        string
	Category    string
	ContentType string
	Size        int64 // declared size; the copy below re-checks it
	Body        io.Reader
	ViaChat     bool // upload initiated from the chat surface
}

// Upload persists the blob and the Document row. Chat-surface uploads
// also insert the announcing chat message in the same transaction: a
// document must never exist without its message when shared via chat.
func (s *Service) Upload(ctx context.Context, dealID, actorID uint, p UploadParams) (*models.Document, error) {
	if p.Name == "" {
		return nil, apperrors.Validation("file name is required")
	}
	if p.Category == "" {
		p.Category = models.CategoryOther
	}
	limit := s.Limits.DealFileBytes
	if p.ViaChat {
		limit = s.Limits.ChatAttachBytes
	}
	if p.Size > limit {
		return nil, &apperrors.PayloadTooLargeError{Limit: limit, Size: p.Size}
	}

	s.Locks.Lock(dealID)
	defer s.Locks.Unlock(dealID)

	deal, err := s.loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}

	// Copy through a hard cap so a client lying about Content-Length
	// cannot exceed the ceiling.
	path := storage.GeneratePath(dealID, p.Name)
	counted := &countingReader{r: io.LimitReader(p.Body, limit+1)}
	if err := s.Blobs.Put(path, counted); err != nil {
		return nil, apperrors.Storage(err)
	}
	if counted.n > limit {
		if derr := s.Blobs.Delete(path); derr != nil {
			log.Printf("document: oversized blob %s not removed: %v", path, derr)
		}
		return nil, &apperrors.PayloadTooLargeError{Limit: limit, Size: counted.n}
	}

	doc := &models.Document{
		DealID:      dealID,
		Name:        p.Name,
		Category:    p.Category,
		ContentType: p.ContentType,
		StoragePath: path,
		Size:        counted.n,
		UploadedBy:  actorID,
	}
	var msg *models.ChatMessage
	var entry *models.ActivityEntry

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Repository.Create(tx, doc); err != nil {
			return err
		}
		if p.ViaChat {
			msg = &models.ChatMessage{
				DealID:     dealID,
				SenderID:   actorID,
				Body:       fmt.Sprintf("shared a file: %s", p.Name),
				DocumentID: &doc.ID,
				System:     true,
			}
			if err := s.Messages.Create(tx, msg); err != nil {
				return err
			}
		}
		var err error
		entry, err = s.Activity.AppendTx(tx, dealID, actorID, models.ActivityDocumentUpload,
			fmt.Sprintf("uploaded %s (%s)", p.Name, p.Category))
		return err
	})
	if err != nil {
		if derr := s.Blobs.Delete(path); derr != nil {
			log.Printf("document: orphan blob %s not removed: %v", path, derr)
		}
		return nil, apperrors.Storage(err)
	}

	// Publish only after the commit; a rolled-back upload must never
	// produce events.
	s.Hub.Publish(dealID, realtime.NewDocument(doc))
	s.Hub.Publish(dealID, realtime.NewActivity(entry))
	if msg != nil {
		s.Hub.Publish(dealID, realtime.NewMessage(msg))
	}
	s.Notifier.Dispatch(ctx, notification.Notification{
		Kind:        notification.KindNewDocument,
		DealID:      dealID,
		ActorID:     actorID,
		RecipientID: deal.OtherParticipant(actorID),
		Title:       "New document",
		Body:        fmt.Sprintf("%s (%s)", p.Name, p.Category),
	})
	return doc, nil
}

// List returns the deal's documents, participant-only.
func (s *Service) List(dealID, actorID uint) ([]models.Document, error) {
	deal, err := s.loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}
	docs, err := s.Repository.ListByDeal(s.DB, dealID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return docs, nil
}

// Delete removes the row and the backing blob. Only the uploader may
// delete; the activity log keeps recording that the upload happened.
func (s *Service) Delete(documentID, actorID uint) error {
	doc, err := s.Repository.FindByID(s.DB, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return apperrors.Storage(err)
	}
	if doc.UploadedBy != actorID {
		return apperrors.Permission("only the uploader may delete a document")
	}

	s.Locks.Lock(doc.DealID)
	defer s.Locks.Unlock(doc.DealID)

	if err := s.Repository.Delete(s.DB, documentID); err != nil {
		return apperrors.Storage(err)
	}
	if err := s.Blobs.Delete(doc.StoragePath); err != nil {
		log.Printf("document: blob %s not removed: %v", doc.StoragePath, err)
	}
	s.Hub.Publish(doc.DealID, realtime.DocumentDeleted(doc.DealID, documentID))
	return nil
}

func (s *Service) loadDeal(dealID uint) (*models.Deal, error) {
	var deal models.Deal
	if err := s.DB.First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return &deal, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
