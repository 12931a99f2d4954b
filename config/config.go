package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Converter ConverterConfig `mapstructure:"converter"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	MetricsPort string `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket"`
}

type ConverterConfig struct {
	Binary         string `mapstructure:"binary"`
	OutputDir      string `mapstructure:"output_dir"`
	WorkDir        string `mapstructure:"work_dir"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c *ConverterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

func LoadConfig() (*Config, error) {
	// .env is optional; system env wins either way
	_ = godotenv.Load()

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.metrics_port", "2112")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.dbname", "docflow")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("minio.bucket", "docflow")
	viper.SetDefault("converter.binary", "soffice")
	viper.SetDefault("converter.output_dir", "/tmp/docflow/converted")
	viper.SetDefault("converter.work_dir", "/tmp/docflow/work")
	viper.SetDefault("converter.timeout_seconds", 120)
	viper.SetDefault("kafka.topic", "review.events")

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.metrics_port", "METRICS_PORT")
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")
	viper.BindEnv("database.sslmode", "DB_SSLMODE")
	viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	viper.BindEnv("minio.bucket", "MINIO_BUCKET_NAME")
	viper.BindEnv("converter.binary", "CONVERTER_BINARY")
	viper.BindEnv("converter.output_dir", "CONVERTER_OUTPUT_DIR")
	viper.BindEnv("converter.work_dir", "CONVERTER_WORK_DIR")
	viper.BindEnv("converter.timeout_seconds", "CONVERTER_TIMEOUT_SECONDS")
	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("kafka.topic", "KAFKA_TOPIC")

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
