package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット
	GoEnv     string // dev/prod

	// スケジューラ向けcleanupエンドポイントのAPIキー（bcryptハッシュ）
	CleanupAPIKeyHash string

	DefaultReservationTTL time.Duration // TTL未指定時の引当保持時間
	MaxReservationTTL     time.Duration // 受け付けるTTLの上限

	SweepInterval  time.Duration // Sweeperの起動間隔
	SweepBatchSize int           // 1回のsweepで処理する最大件数

	StoreRetryAttempts int           // 一時障害のリトライ回数
	StoreRetryBackoff  time.Duration // リトライ間隔の初期値
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     os.Getenv("GO_ENV"),

		CleanupAPIKeyHash: os.Getenv("CLEANUP_API_KEY_HASH"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.CleanupAPIKeyHash == "" {
		return Config{}, fmt.Errorf("CLEANUP_API_KEY_HASH is required")
	}

	defaultTTL, err := intEnv("RESERVATION_DEFAULT_TTL_SECONDS", 900)
	if err != nil {
		return Config{}, err
	}
	maxTTL, err := intEnv("RESERVATION_MAX_TTL_SECONDS", 86400)
	if err != nil {
		return Config{}, err
	}
	sweepInterval, err := intEnv("SWEEP_INTERVAL_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	sweepBatch, err := intEnv("SWEEP_BATCH_SIZE", 100)
	if err != nil {
		return Config{}, err
	}
	retryAttempts, err := intEnv("STORE_RETRY_ATTEMPTS", 3)
	if err != nil {
		return Config{}, err
	}
	retryBackoffMS, err := intEnv("STORE_RETRY_BACKOFF_MS", 50)
	if err != nil {
		return Config{}, err
	}

	cfg.DefaultReservationTTL = time.Duration(defaultTTL) * time.Second
	cfg.MaxReservationTTL = time.Duration(maxTTL) * time.Second
	cfg.SweepInterval = time.Duration(sweepInterval) * time.Second
	cfg.SweepBatchSize = sweepBatch
	cfg.StoreRetryAttempts = retryAttempts
	cfg.StoreRetryBackoff = time.Duration(retryBackoffMS) * time.Millisecond

	if cfg.DefaultReservationTTL <= 0 || cfg.MaxReservationTTL < cfg.DefaultReservationTTL {
		return Config{}, fmt.Errorf("reservation TTL settings are inconsistent")
	}
	if cfg.SweepInterval <= 0 || cfg.SweepBatchSize <= 0 {
		return Config{}, fmt.Errorf("sweep settings must be positive")
	}

	return cfg, nil
}

// 未設定ならデフォルト、設定されていれば数値必須
func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
