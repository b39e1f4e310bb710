package models

import "time"

// AnswerKind classifies a life-story entry. Callers state the kind
// explicitly instead of encoding it in the question identifier.
type AnswerKind string

const (
	KindAnswer AnswerKind = "answer"
	KindMemo   AnswerKind = "memo"
)

// Valid reports whether the kind is one of the known values.
func (k AnswerKind) Valid() bool {
	return k == KindAnswer || k == KindMemo
}

// MediaKind identifies an upload bucket (photos or audio).
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaAudio MediaKind = "audio"
)

// Dir returns the directory name for this kind under the upload root.
func (m MediaKind) Dir() string {
	if m == MediaAudio {
		return "audio"
	}
	return "photos"
}

// Answer represents a stored response to one life-story question,
// keyed by its question identifier. At most one row per question.
type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	PhotoURL   *string   `json:"photo_url,omitempty"`
	AudioURL   *string   `json:"audio_url,omitempty"`
	Completed  bool      `json:"completed"`
	IsMemo     bool      `json:"is_memo"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Memory represents a visitor-submitted recollection pending or past
// moderation. New memories always start unapproved.
type Memory struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MediaFile describes one uploaded file on disk.
type MediaFile struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// MediaListing groups on-disk files by kind.
type MediaListing struct {
	Photos []MediaFile `json:"photos"`
	Audio  []MediaFile `json:"audio"`
}

// CleanupResult reports what an orphan sweep removed.
type CleanupResult struct {
	DeletedCount int      `json:"deletedCount"`
	DeletedFiles []string `json:"deletedFiles"`
}
