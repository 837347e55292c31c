package models

// MediaState tells where a media value currently lives: nowhere, in a file
// the author just picked, or in object storage.
type MediaState string

const (
	MediaEmpty    MediaState = "empty"
	MediaPending  MediaState = "pending"
	MediaUploaded MediaState = "uploaded"
)

// PendingFile is a locally selected file that has not been uploaded yet.
// It is consumed exactly once by the submission pipeline; it is never sent
// to the question API directly.
type PendingFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// MediaRef is the tri-state reference a draft holds for each media slot.
type MediaRef struct {
	State      MediaState   `json:"state"`
	File       *PendingFile `json:"file,omitempty"`
	ObjectPath string       `json:"object_path,omitempty"`
}

func EmptyMedia() MediaRef {
	return MediaRef{State: MediaEmpty}
}

func PendingMedia(file *PendingFile) MediaRef {
	return MediaRef{State: MediaPending, File: file}
}

func UploadedMedia(objectPath string) MediaRef {
	return MediaRef{State: MediaUploaded, ObjectPath: objectPath}
}

func (m MediaRef) IsEmpty() bool    { return m.State == MediaEmpty || m.State == "" }
func (m MediaRef) IsPending() bool  { return m.State == MediaPending }
func (m MediaRef) IsUploaded() bool { return m.State == MediaUploaded }

// DisplayName is the human-readable placeholder shown while the media is not
// resolvable yet: the picked file name for pending media, the object path for
// uploaded media.
func (m MediaRef) DisplayName() string {
	switch m.State {
	case MediaPending:
		if m.File != nil {
			return m.File.Name
		}
		return ""
	case MediaUploaded:
		return m.ObjectPath
	default:
		return ""
	}
}
