package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeAudio = "audio/"
	MimeWebM  = "video/webm" // 浏览器 MediaRecorder 录音常被识别为 video/webm
)

var (
	AllowedAudioMimeTypes  = []string{MimeAudio, MimeWebM}
	AllowedAudioExtensions = []string{".wav", ".mp3", ".m4a", ".ogg", ".webm", ".aac", ".flac"}
)
