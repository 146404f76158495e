package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseSchema  string `envconfig:"DATABASE_SCHEMA" default:"civicportal"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"30"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Token verification. Tokens are issued elsewhere, this service only
	// validates them against the issuer's JWKS.
	AuthIssuerURL   string `envconfig:"AUTH_ISSUER_URL"`
	AuthGroupsClaim string `envconfig:"AUTH_GROUPS_CLAIM" default:"cognito:groups"`
	AuthAdminGroup  string `envconfig:"AUTH_ADMIN_GROUP" default:"admin"`

	CookieName string `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Generated documents
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"` // local or s3
	StorageDir     string `envconfig:"STORAGE_DIR" default:"./var/storage"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Prefix       string `envconfig:"S3_PREFIX"`

	PDFTimeoutSec     uint   `envconfig:"PDF_TIMEOUT_SEC" default:"15"`
	PDFOfficeName     string `envconfig:"PDF_OFFICE_NAME" default:"Civil Registry and Population Office"`
	PDFMunicipality   string `envconfig:"PDF_MUNICIPALITY" default:"Municipal Government"`
	PDFAuthorityLabel string `envconfig:"PDF_AUTHORITY_LABEL" default:"Head of Civil Registry"`
}
