package model

// UserInfo is the resolved profile returned by the user service and embedded
// in message envelopes as the sender.
type UserInfo struct {
	UserID      string `json:"user_id"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`
	Email       string `json:"email"`
	Avatar      []byte `json:"avatar,omitempty"` // raw image bytes, resolved from the blob store
}

// MessageType tags the payload union inside a MessageContent.
type MessageType int32

const (
	MessageString MessageType = 0
	MessageImage  MessageType = 1
	MessageFile   MessageType = 2
	MessageSpeech MessageType = 3
)

// String returns the lowercase name used in logs.
func (t MessageType) String() string {
	switch t {
	case MessageString:
		return "string"
	case MessageImage:
		return "image"
	case MessageFile:
		return "file"
	case MessageSpeech:
		return "speech"
	default:
		return "unknown"
	}
}

// StringMessageInfo carries a plain text payload.
type StringMessageInfo struct {
	Content string `json:"content"`
}

// ImageMessageInfo carries an image payload. On the way in only ImageContent
// is set; after storage FileID points at the blob and history reads fill
// ImageContent back in.
type ImageMessageInfo struct {
	FileID       string `json:"file_id,omitempty"`
	ImageContent []byte `json:"image_content,omitempty"`
}

// FileMessageInfo carries a generic file payload.
type FileMessageInfo struct {
	FileID       string `json:"file_id,omitempty"`
	FileSize     int64  `json:"file_size"`
	FileName     string `json:"file_name"`
	FileContents []byte `json:"file_contents,omitempty"`
}

// SpeechMessageInfo carries a voice payload.
type SpeechMessageInfo struct {
	FileID       string `json:"file_id,omitempty"`
	FileContents []byte `json:"file_contents,omitempty"`
}

// MessageContent is the tagged payload union. Exactly the member selected by
// Type is expected to be non-nil.
type MessageContent struct {
	Type          MessageType        `json:"message_type"`
	StringMessage *StringMessageInfo `json:"string_message,omitempty"`
	ImageMessage  *ImageMessageInfo  `json:"image_message,omitempty"`
	FileMessage   *FileMessageInfo   `json:"file_message,omitempty"`
	SpeechMessage *SpeechMessageInfo `json:"speech_message,omitempty"`
}

// MessageInfo is the canonical, fully-resolved message envelope. It is what
// the transmit service hands back to gateways and what travels through the
// broker to the storage service.
type MessageInfo struct {
	MessageID     string         `json:"message_id"`
	ChatSessionID string         `json:"chat_session_id"`
	Timestamp     int64          `json:"timestamp"` // unix seconds, stamped at transmit time
	Sender        UserInfo       `json:"sender"`
	Content       MessageContent `json:"message"`
}

// FileInfo is the metadata returned after an upload.
type FileInfo struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// FileUploadData is one blob on its way into the store.
type FileUploadData struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	FileContent []byte `json:"file_content"`
}

// FileDownloadData is one blob on its way out of the store.
type FileDownloadData struct {
	FileID      string `json:"file_id"`
	FileContent []byte `json:"file_content"`
}
