package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Paths          PathsConfig          `mapstructure:"paths"`
	Zones          ZonesConfig          `mapstructure:"zones"`
	Ingest         IngestConfig         `mapstructure:"ingest"`
	Features       FeaturesConfig       `mapstructure:"features"`
	Model          ModelConfig          `mapstructure:"model"`
	Plant          PlantConfig          `mapstructure:"plant"`
	Aggregate      AggregateConfig      `mapstructure:"aggregate"`
	Home           HomeConfig           `mapstructure:"home"`
	QA             QAConfig             `mapstructure:"qa"`
	Database       DatabaseConfig       `mapstructure:"database"`
	SQLite         SQLiteConfig         `mapstructure:"sqlite"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Queue          QueueConfig          `mapstructure:"queue"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type PathsConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	ClimateDir   string `mapstructure:"climate_dir"`
	ZonesFile    string `mapstructure:"zones_file"`
	ArtifactFile string `mapstructure:"artifact_file"`
	ModelFile    string `mapstructure:"model_file"`
	ReportsDir   string `mapstructure:"reports_dir"`
}

type ZonesConfig struct {
	City        string  `mapstructure:"city"`
	CenterLat   float64 `mapstructure:"center_lat"`
	CenterLon   float64 `mapstructure:"center_lon"`
	CellKM      float64 `mapstructure:"cell_km"`
	IDPrefix    string  `mapstructure:"id_prefix"`
	OverpassURL string  `mapstructure:"overpass_url"`
}

type IngestConfig struct {
	QuantileLow  float64 `mapstructure:"quantile_low"`
	QuantileHigh float64 `mapstructure:"quantile_high"`
}

type FeaturesConfig struct {
	Lags             []int  `mapstructure:"lags"`
	RollingMeanDays  []int  `mapstructure:"rolling_mean_days"`
	RollingStdDays   []int  `mapstructure:"rolling_std_days"`
	SeasonalEncoding string `mapstructure:"seasonal_encoding"`
	GapToleranceDays int    `mapstructure:"gap_tolerance_days"`
	MinTrainDays     int    `mapstructure:"min_train_days"`
	SplitCutoff      string `mapstructure:"split_cutoff"`
}

type ModelConfig struct {
	Variant      string  `mapstructure:"variant"`
	RidgeLambda  float64 `mapstructure:"ridge_lambda"`
	Trees        int     `mapstructure:"trees"`
	MaxDepth     int     `mapstructure:"max_depth"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Subsample    float64 `mapstructure:"subsample"`
	MinLeaf      int     `mapstructure:"min_leaf"`
	Seed         int64   `mapstructure:"seed"`
}

type PlantConfig struct {
	CapacityKW  float64 `mapstructure:"capacity_kw"`
	TiltDeg     float64 `mapstructure:"tilt_deg"`
	AzimuthDeg  float64 `mapstructure:"azimuth_deg"`
	Albedo      float64 `mapstructure:"albedo"`
	GammaPdc    float64 `mapstructure:"gamma_pdc"`
	InverterEff float64 `mapstructure:"inverter_eff"`
}

type AggregateConfig struct {
	HorizonDays   int     `mapstructure:"horizon_days"`
	Interpolation string  `mapstructure:"interpolation"` // "nearest" or "idw"
	IDWNeighbors  int     `mapstructure:"idw_neighbors"`
	IDWPower      float64 `mapstructure:"idw_power"`
	Workers       int     `mapstructure:"workers"`
}

type HomeConfig struct {
	ReferenceCapacityKW float64 `mapstructure:"reference_capacity_kw"`
	CoverageMarginKM    float64 `mapstructure:"coverage_margin_km"`
}

type QAConfig struct {
	MinDays           int     `mapstructure:"min_days"`
	MaxZeroDays       int     `mapstructure:"max_zero_days"`
	CapacityFactorMin float64 `mapstructure:"capacity_factor_min"`
	CapacityFactorMax float64 `mapstructure:"capacity_factor_max"`
	MeanDailyKWhMin   float64 `mapstructure:"mean_daily_kwh_min"`
	MeanDailyKWhMax   float64 `mapstructure:"mean_daily_kwh_max"`
	FullYearDays      int     `mapstructure:"full_year_days"`
}

type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type CacheConfig struct {
	Backend         string        `mapstructure:"backend"` // "local" or "redis"
	EstimateTTL     time.Duration `mapstructure:"estimate_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type QueueConfig struct {
	Backend string `mapstructure:"backend"` // "none", "nats" or "rabbitmq"
	URL     string `mapstructure:"url"`
}

type OpenTelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

// Default returns the configuration used when no file or environment
// overrides are present. The Bengaluru deployment is the reference.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "solatlas",
			Version:     "v1.0.0",
			Environment: "development",
		},
		HTTP: HTTPConfig{
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Paths: PathsConfig{
			DataDir:      "data",
			ClimateDir:   "data/climate",
			ZonesFile:    "data/zones.geojson",
			ArtifactFile: "data/suitability_solar.geojson",
			ModelFile:    "data/model.json",
			ReportsDir:   "data/reports",
		},
		Zones: ZonesConfig{
			City:      "Bengaluru",
			CenterLat: 12.9716,
			CenterLon: 77.5946,
			CellKM:    2.0,
			IDPrefix:  "BLR",
		},
		Ingest: IngestConfig{
			QuantileLow:  0.01,
			QuantileHigh: 0.99,
		},
		Features: FeaturesConfig{
			Lags:             []int{1, 7},
			RollingMeanDays:  []int{7, 30},
			RollingStdDays:   []int{7},
			SeasonalEncoding: "cyclical",
			GapToleranceDays: 3,
			MinTrainDays:     60,
		},
		Model: ModelConfig{
			Variant:      "ridge",
			RidgeLambda:  1.0,
			Trees:        200,
			MaxDepth:     3,
			LearningRate: 0.05,
			Subsample:    0.8,
			MinLeaf:      5,
			Seed:         42,
		},
		Plant: PlantConfig{
			CapacityKW:  10.0,
			TiltDeg:     13.0,
			AzimuthDeg:  180.0,
			Albedo:      0.20,
			GammaPdc:    -0.004,
			InverterEff: 0.96,
		},
		Aggregate: AggregateConfig{
			HorizonDays:   365,
			Interpolation: "nearest",
			IDWNeighbors:  3,
			IDWPower:      2.0,
			Workers:       0, // 0 means one worker per CPU
		},
		Home: HomeConfig{
			ReferenceCapacityKW: 10.0,
			CoverageMarginKM:    25.0,
		},
		QA: QAConfig{
			MinDays:           330,
			MaxZeroDays:       40,
			CapacityFactorMin: 0.12,
			CapacityFactorMax: 0.28,
			MeanDailyKWhMin:   5.0,
			MeanDailyKWhMax:   60.0,
			FullYearDays:      360,
		},
		Database: DatabaseConfig{
			Enabled:      false,
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			AutoMigrate:  true,
		},
		SQLite: SQLiteConfig{
			Path: "data/solatlas.db",
		},
		Cache: CacheConfig{
			Backend:         "local",
			EstimateTTL:     5 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Queue: QueueConfig{
			Backend: "none",
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:        false,
			ServiceName:    "solatlas",
			JaegerEndpoint: "http://jaeger:14268/api/traces",
		},
		Prometheus: PrometheusConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 0.6,
		},
		CORS: CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			MaxAge:         86400,
		},
	}
}
