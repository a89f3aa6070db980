package config

import "time"

// APIConfig holds runtime configuration for the contacts API service.
type APIConfig struct {
	Environment   string
	Addr          string
	DatabaseURL   string
	MigrationsDir string
	PublicBaseURL string

	JWTSecret      string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:   GetString("APP_ENV", "development"),
		Addr:          GetString("API_ADDR", ":8000"),
		DatabaseURL:   GetString("DATABASE_URL", "postgres://contacts:contacts@db:5432/contacts?sslmode=disable"),
		MigrationsDir: GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		PublicBaseURL: GetString("PUBLIC_BASE_URL", "http://127.0.0.1:8000"),

		JWTSecret:      GetString("JWT_SECRET", "supersecretkey"),
		AccessTokenTTL: time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 30)) * time.Minute,
		ResetTokenTTL:  time.Duration(GetInt("RESET_TOKEN_TTL_MIN", 10)) * time.Minute,

		RedisAddr:     GetString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetString("REDIS_PASSWORD", ""),
		RedisDB:       GetInt("REDIS_DB", 0),

		SMTPHost:     GetString("MAIL_SERVER", ""),
		SMTPPort:     GetInt("MAIL_PORT", 587),
		SMTPUsername: GetString("MAIL_USERNAME", ""),
		SMTPPassword: GetString("MAIL_PASSWORD", ""),
		MailFrom:     GetString("MAIL_FROM", "noreply@contactshub.local"),

		S3Endpoint:  GetString("S3_ENDPOINT", ""),
		S3Region:    GetString("S3_REGION", "us-east-1"),
		S3Bucket:    GetString("S3_BUCKET", "avatars"),
		S3AccessKey: GetString("S3_ACCESS_KEY", ""),
		S3SecretKey: GetString("S3_SECRET_KEY", ""),
	}
}
