package attachments

import "time"

// Attachment is one uploaded file, keyed by subject and form field. The
// payload travels and rests as standard base64; ArchiveKey points at the
// optional raw-byte copy in the object store and is empty when archival
// was skipped or failed.
type Attachment struct {
	SubjectID      string    `json:"subjectId"`
	FieldName      string    `json:"fieldName"`
	OriginalName   string    `json:"originalName"`
	MimeType       string    `json:"mimeType"`
	ByteSize       int64     `json:"byteSize"`
	EncodedPayload string    `json:"encodedPayload"`
	ArchiveKey     string    `json:"archiveKey,omitempty"`
	UploadedAt     time.Time `json:"uploadedAt"`
}

// Ref is the metadata-only view returned by listing endpoints.
type Ref struct {
	SubjectID    string    `json:"subjectId"`
	FieldName    string    `json:"fieldName"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	ByteSize     int64     `json:"byteSize"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// AsRef strips the payload.
func (a Attachment) AsRef() Ref {
	return Ref{
		SubjectID:    a.SubjectID,
		FieldName:    a.FieldName,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		ByteSize:     a.ByteSize,
		UploadedAt:   a.UploadedAt,
	}
}
