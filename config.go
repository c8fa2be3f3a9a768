package odatanode

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"odatanode/internal/odata"
)

type AppConfig struct {
	Mode         string
	ApiPort      string
	LogLevel     string
	MainDatabase struct {
		Host         string
		Port         string
		User         string
		Password     string
		DatabaseName string
		SSLMode      string
	}
	JWTConfig struct {
		Secret string
	}
	RedisConfig struct {
		Host      string
		Port      string
		Password  string
		DB        int
		ResultTTL time.Duration
	}
	NATSConfig struct {
		URL string
	}
	ODataConfig struct {
		ServiceURL     string
		ConnectTimeout time.Duration
		ReadTimeout    time.Duration
	}
}

var config AppConfig

func InitConfig(envfile string) {
	err := godotenv.Load(envfile)
	if err != nil {
		log.Fatal(fmt.Sprintf("Error loading %s file: %s", envfile, err))
	}
	config = AppConfig{
		Mode:     getEnvOrPanic("RUN_MODE"),
		ApiPort:  getEnvOrPanic("API_PORT"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
	}
	config.MainDatabase.Host = getEnvOrPanic("DB_HOSTNAME")
	config.MainDatabase.Port = getEnvOrPanic("DB_PORT")
	config.MainDatabase.User = getEnvOrPanic("DB_USERNAME")
	config.MainDatabase.Password = getEnvOrPanic("DB_PASSWORD")
	config.MainDatabase.DatabaseName = getEnvOrPanic("DB_NAME")
	config.MainDatabase.SSLMode = getEnvOrPanic("DB_SSL_MODE")

	config.JWTConfig.Secret = getEnvOrPanic("JWT_SECRET")

	config.RedisConfig.Host = GetEnv("REDIS_HOST", "localhost")
	config.RedisConfig.Port = GetEnv("REDIS_PORT", "6379")
	config.RedisConfig.Password = GetEnv("REDIS_PASSWORD", "")
	config.RedisConfig.DB = getIntEnvOrDefault("REDIS_DB", 0)
	config.RedisConfig.ResultTTL = time.Duration(getIntEnvOrDefault("REDIS_RESULT_TTL_MINUTES", 60)) * time.Minute

	config.NATSConfig.URL = GetEnv("NATS_URL", nats.DefaultURL)

	config.ODataConfig.ServiceURL = GetEnv("ODATA_SERVICE_URL", odata.DefaultServiceURL)
	config.ODataConfig.ConnectTimeout = time.Duration(getIntEnvOrDefault("ODATA_CONNECT_TIMEOUT_SECONDS", 30)) * time.Second
	config.ODataConfig.ReadTimeout = time.Duration(getIntEnvOrDefault("ODATA_READ_TIMEOUT_SECONDS", 30)) * time.Second

	Logger = initLogger(config.LogLevel)
	DB = connectToPostgres(config.MainDatabase.Host, config.MainDatabase.User, config.MainDatabase.Password, config.MainDatabase.DatabaseName, config.MainDatabase.Port, config.MainDatabase.SSLMode)
	Redis = connectToRedis(config.RedisConfig.Host, config.RedisConfig.Port, config.RedisConfig.Password, config.RedisConfig.DB)
	NATS = connectToNats(config.NATSConfig.URL)
}

func GetConfig() AppConfig {
	return config
}

func getEnvOrPanic(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s must be set", key)
	}
	return value
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func connectToPostgres(host string, username string, password string, dbname string, port string, ssl string) *gorm.DB {
	var err error
	var db *gorm.DB
	var conn *sql.DB

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, username, password, dbname, port, ssl)
	if db, err = gorm.Open(postgres.Open(dsn),
		&gorm.Config{
			Logger: logger.New(
				log.New(os.Stdout, "\r\n", log.LstdFlags),
				logger.Config{
					SlowThreshold: 0,
					LogLevel:      logger.Error,
				},
			),
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now()
			},
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			}}); err != nil {
		panic(err)
	}
	if conn, err = db.DB(); err != nil {
		panic(err)
	}
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)
	return db
}

func initLogger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Caller().Logger()
}

func connectToRedis(host string, port string, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}

// connectToNats is best-effort: a missing broker only disables progress publishing
func connectToNats(url string) *nats.Conn {
	nc, err := nats.Connect(url, nats.Name("odata-node"), nats.Timeout(5*time.Second))
	if err != nil {
		Logger.Warn().Err(err).Str("url", url).Msg("NATS connection failed, progress publishing disabled")
		return nil
	}
	Logger.Info().Str("url", url).Msg("NATS connected")
	return nc
}
