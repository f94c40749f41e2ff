package models

// UploadSource is the tagged variant describing where upload bytes come from:
// an in-memory payload or a file on disk. Implementations are dispatched with
// an explicit type switch, never runtime reflection.
type UploadSource interface {
	uploadSource()
}

// BytesSource uploads an in-memory payload.
type BytesSource struct {
	Data        []byte
	ContentType string
}

// FileSource uploads a file from a local path.
type FileSource struct {
	Path        string
	ContentType string
}

func (BytesSource) uploadSource() {}
func (FileSource) uploadSource()  {}
