package common

// Multipart form field names accepted by the upload endpoint.
const (
	FieldUsername      = "username"
	FieldUsernameAlias = "nome"
	FieldMethod        = "method"
	FieldFilename      = "filename"
	FieldChecksum      = "md5"
	FieldSecret        = "SECRET"
	FieldFile          = "file"
)

// SecretHeaderName carries the shared secret for clients that do not send it
// as a form field.
const SecretHeaderName = "X-Ingest-Secret"
