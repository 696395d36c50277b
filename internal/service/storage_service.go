package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"
	"vocab_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
	// SignedURL 供发音评分服务临时读取录音
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) path(key string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filepath.FromSlash(key))
	root, _ := filepath.Abs(p.Config.LocalPath)
	abs, _ := filepath.Abs(dst)
	if !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return dst, nil
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst, err := p.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *LocalStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()
	return p.Upload(ctx, key, src, -1, contentType)
}

func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	dst, err := p.path(key)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}

func (p *LocalStorageProvider) GetURL(key string) string {
	return "/uploads/" + key
}

// SignedURL 本地存储没有签名，返回可公开访问的地址
func (p *LocalStorageProvider) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return strings.TrimRight(p.Config.PublicBaseURL, "/") + p.GetURL(key), nil
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	_, err := p.Client.FPutObject(ctx, p.Config.MinioBucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(key string) string {
	return "/" + p.Config.MinioBucket + "/" + key
}

func (p *MinioStorageProvider) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := p.Client.PresignedGetObject(ctx, p.Config.MinioBucket, key, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObjectFromFile(key, localPath, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, key string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(key)
}

func (p *OSSStorageProvider) GetURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, key)
}

func (p *OSSStorageProvider) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	return bucket.SignURL(key, oss.HTTPGet, int64(ttl.Seconds()))
}

// AudioUpload 上传后的录音引用
type AudioUpload struct {
	AudioRef    string  `json:"audioRef"`
	URL         string  `json:"url"`
	ContentType string  `json:"contentType"`
	Duration    float64 `json:"duration,omitempty"`
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
	storage  config.StorageConfig
	audio    config.AudioConfig
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init minio storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init oss storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return NewStorageServiceWithProvider(provider, cfg.Storage, cfg.Audio)
}

func NewStorageServiceWithProvider(provider StorageProvider, storage config.StorageConfig, audio config.AudioConfig) *StorageService {
	if storage.SignedURLTTL <= 0 {
		storage.SignedURLTTL = 15 * time.Minute
	}
	return &StorageService{Provider: provider, storage: storage, audio: audio}
}

func audioPrefix(userID uint) string {
	return fmt.Sprintf("audio/%d/", userID)
}

// UploadAudio 校验文件类型后保存录音，开启转码时统一转为 WAV
func (s *StorageService) UploadAudio(ctx context.Context, userID uint, filename string, src io.Reader, size int64) (*AudioUpload, error) {
	if s.audio.MaxBytes > 0 && size > s.audio.MaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", util.ErrInvalidAudio, s.audio.MaxBytes)
	}
	if !util.HasAllowedExtension(filename, util.AllowedAudioExtensions) {
		return nil, fmt.Errorf("%w: unsupported extension", util.ErrInvalidAudio)
	}

	br := bufio.NewReaderSize(src, 512)
	head, _ := br.Peek(512)
	mimeType, err := util.ValidateMimeType(strings.NewReader(string(head)), util.AllowedAudioMimeTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidAudio, err)
	}

	id := model.GenerateUUID()
	ext := strings.ToLower(filepath.Ext(filename))

	if !s.audio.Transcode {
		key := audioPrefix(userID) + id + ext
		u, err := s.Provider.Upload(ctx, key, br, size, mimeType)
		if err != nil {
			return nil, err
		}
		return &AudioUpload{AudioRef: key, URL: u, ContentType: mimeType}, nil
	}

	return s.transcodeAndUpload(ctx, userID, id, ext, br)
}

func (s *StorageService) transcodeAndUpload(ctx context.Context, userID uint, id, ext string, src io.Reader) (*AudioUpload, error) {
	tmpDir, err := os.MkdirTemp("", "vocab-audio-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "in"+ext)
	f, err := os.Create(in)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()

	out := filepath.Join(tmpDir, "out.wav")
	if err := util.TranscodeToWAV(in, out, s.audio.SampleRate); err != nil {
		return nil, fmt.Errorf("%w: transcode: %v", util.ErrInvalidAudio, err)
	}

	upload := &AudioUpload{AudioRef: audioPrefix(userID) + id + ".wav", ContentType: "audio/wav"}
	if info, err := util.GetAudioInfo(out); err == nil {
		upload.Duration = info.Duration
	} else {
		logger.Log.Warn("Probe transcoded audio failed", zap.Error(err))
	}

	u, err := s.Provider.UploadFile(ctx, upload.AudioRef, out, upload.ContentType)
	if err != nil {
		return nil, err
	}
	upload.URL = u
	return upload, nil
}

// AudioURL 只能引用自己上传的录音
func (s *StorageService) AudioURL(ctx context.Context, userID uint, audioRef string) (string, error) {
	if !strings.HasPrefix(audioRef, audioPrefix(userID)) || strings.Contains(audioRef, "..") {
		return "", fmt.Errorf("%w: unknown audio reference", util.ErrInvalidAudio)
	}
	return s.Provider.SignedURL(ctx, audioRef, s.storage.SignedURLTTL)
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.Provider.Delete(ctx, key)
}

func (s *StorageService) GetURL(key string) string {
	return s.Provider.GetURL(key)
}
