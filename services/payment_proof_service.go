package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxProofSize -> batas ukuran bukti pembayaran
const MaxProofSize = 5 << 20

var proofContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ProofStore menyimpan file bukti pembayaran (S3/R2)
type ProofStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// PaymentProofService menangani upload bukti pembayaran reservasi
type PaymentProofService struct {
	db        *gorm.DB
	store     ProofStore
	publisher Publisher
	prefix    string
	now       func() time.Time
}

// NewPaymentProofService membuat instance baru PaymentProofService.
// store boleh nil, upload akan mengembalikan ErrUpstreamUnavailable.
func NewPaymentProofService(db *gorm.DB, store ProofStore, publisher Publisher, prefix string) *PaymentProofService {
	if prefix == "" {
		prefix = "reservations/proofs"
	}
	return &PaymentProofService{
		db:        db,
		store:     store,
		publisher: publisherOrNop(publisher),
		prefix:    strings.Trim(prefix, "/"),
		now:       time.Now,
	}
}

// Upload -> simpan gambar bukti pembayaran; status reservasi tetap pending sampai dikonfirmasi staff
func (s *PaymentProofService) Upload(ctx context.Context, reservationID uint, file io.Reader, size int64) (*models.Reservation, error) {
	if size > MaxProofSize {
		return nil, NewValidationError("payment_proof", "must be 5MB or smaller")
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxProofSize+1))
	if err != nil {
		return nil, fmt.Errorf("read payment proof: %w", err)
	}
	if len(data) == 0 {
		return nil, NewValidationError("payment_proof", "is required")
	}
	if len(data) > MaxProofSize {
		return nil, NewValidationError("payment_proof", "must be 5MB or smaller")
	}

	contentType := http.DetectContentType(data)
	ext, ok := proofContentTypes[contentType]
	if !ok {
		return nil, NewValidationError("payment_proof", "must be a JPEG, PNG, WEBP or GIF image")
	}

	db := s.db.WithContext(ctx)
	var reservation models.Reservation
	if err := db.First(&reservation, reservationID).Error; err != nil {
		return nil, notFoundOr(err, "Reservation")
	}

	if s.store == nil {
		return nil, fmt.Errorf("payment proof storage not configured: %w", ErrUpstreamUnavailable)
	}

	key := path.Join(s.prefix, fmt.Sprintf("%s-%s%s", reservation.ReservationCode, uuid.NewString(), ext))
	url, err := s.store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("reservation_id", reservationID).Error("Payment proof upload failed")
		return nil, fmt.Errorf("upload payment proof: %w", ErrUpstreamUnavailable)
	}

	oldKey := reservation.PaymentProofKey
	uploadedAt := s.now()
	err = db.Model(&reservation).Updates(map[string]interface{}{
		"payment_proof":     url,
		"payment_proof_key": key,
		"proof_uploaded_at": uploadedAt,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("save payment proof: %w", err)
	}

	if oldKey != nil && *oldKey != key {
		if err := s.store.Delete(ctx, *oldKey); err != nil {
			utils.ErrorLogger.WithError(err).WithField("key", *oldKey).Warn("Failed to delete replaced payment proof")
		}
	}

	reservation.PaymentProof = &url
	reservation.PaymentProofKey = &key
	reservation.ProofUploadedAt = &uploadedAt

	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_id": reservation.ID,
		"key":            key,
		"bytes":          len(data),
	}).Info("Payment proof uploaded")
	emit(s.publisher, realtime.EventReservationUpdated, reservation, reservation.CustomerID, realtime.RoomAdmin)
	return &reservation, nil
}
