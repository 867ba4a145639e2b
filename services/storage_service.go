package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/genai"
	"github.com/anjiri1684/english_practice/models"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	storyImageFolder   = "english_practice_stories"
	profileImageFolder = "english_practice_profiles"
)

var ErrStorageNotConfigured = errors.New("image storage is not configured")

// ImageStore uploads binary assets and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, folder, publicID string) (string, error)
}

type cloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func (s *cloudinaryStore) Upload(ctx context.Context, data []byte, folder, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID: publicID,
		Folder:   folder,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	return result.SecureURL, nil
}

var Images ImageStore

func InitStorage(s *config.Settings) {
	if s.CloudinaryURL == "" {
		log.Warn("⚠️ Image storage not configured, CLOUDINARY_URL is empty.")
		Images = nil
		return
	}
	cld, err := cloudinary.NewFromURL(s.CloudinaryURL)
	if err != nil {
		log.WithError(err).Error("🔥 Failed to initialize Cloudinary")
		Images = nil
		return
	}
	Images = &cloudinaryStore{cld: cld}
	log.Info("✅ Image storage initialized successfully.")
}

// GenerateStoryImage illustrates a storytelling session. The image cost is
// only debited once the image is generated and uploaded.
func GenerateStoryImage(ctx context.Context, s *models.Session) (*models.Session, error) {
	if Images == nil {
		return nil, ErrStorageNotConfigured
	}

	cost := config.App.ImageTokenCost
	balance, err := Balance(database.DB, s.UserID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, ErrInsufficientTokens
	}

	data, _, err := genai.Client.GenerateImage(ctx, IllustrationPrompt(s))
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	imageURL, err := Images.Upload(ctx, data, storyImageFolder, fmt.Sprintf("%s_%s", s.ID, uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := Debit(tx, s.UserID, cost); err != nil {
			return err
		}
		return tx.Model(&models.Session{}).Where("id = ?", s.ID).Update("image_url", imageURL).Error
	})
	if err != nil {
		return nil, err
	}

	s.ImageURL = &imageURL
	log.WithFields(log.Fields{"session_id": s.ID, "url": imageURL}).Info("Story illustration stored")
	return s, nil
}

type UploadSignature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

// SignProfileUpload lets the browser upload a profile picture straight to Cloudinary.
func SignProfileUpload(cloudinaryURL string, now time.Time) (*UploadSignature, error) {
	if cloudinaryURL == "" {
		return nil, ErrStorageNotConfigured
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	parsed, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Cloudinary URL: %w", err)
	}
	secret, _ := parsed.User.Password()

	params, err := api.StructToParams(uploader.UploadParams{Folder: profileImageFolder})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare signature params: %w", err)
	}
	timestamp := now.Unix()
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(params, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload params: %w", err)
	}

	return &UploadSignature{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    cld.Config.Cloud.APIKey,
		CloudName: cld.Config.Cloud.CloudName,
		Folder:    profileImageFolder,
	}, nil
}
