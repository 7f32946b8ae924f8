package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	JWT             JWTConfig             `mapstructure:"jwt"`
	Log             LogConfig             `mapstructure:"log"`
	Storage         StorageConfig         `mapstructure:"storage"`
	Minio           MinioConfig           `mapstructure:"minio"`
	AWS             AWSConfig             `mapstructure:"aws"`
	Metadata        MetadataConfig        `mapstructure:"metadata"`
	Pipeline        PipelineConfig        `mapstructure:"pipeline"`
	Transcode       TranscodeConfig       `mapstructure:"transcode"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	GRPCServer      GRPCServerConfig      `mapstructure:"grpc_server"`
	Public          PublicConfig          `mapstructure:"public"`
	Profiling       ProfilingConfig       `mapstructure:"profiling"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
	ProgressTTL  time.Duration `mapstructure:"progress_ttl"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoints       []string      `mapstructure:"endpoints"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// GRPCServerConfig gRPC server configuration.
type GRPCServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// StorageConfig selects the durable object store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // minio | s3
	Bucket string `mapstructure:"bucket"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// AWSConfig AWS SDK配置，region 为空时走默认凭证链
type AWSConfig struct {
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// MetadataConfig selects the metadata record store backend.
type MetadataConfig struct {
	Driver string `mapstructure:"driver"` // mysql | dynamodb | none
	Table  string `mapstructure:"table"`
}

// PublicConfig 对外访问配置
type PublicConfig struct {
	StorageHost string `mapstructure:"storage_host"`
	Scheme      string `mapstructure:"scheme"`
}

// PipelineConfig 入口过滤与本地暂存配置
type PipelineConfig struct {
	VideoPrefix       string `mapstructure:"video_prefix"`
	ContentTypePrefix string `mapstructure:"content_type_prefix"`
	TempDir           string `mapstructure:"temp_dir"`
}

// TranscodeConfig 转码配置
type TranscodeConfig struct {
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	HLS       HLSConfig       `mapstructure:"hls"`
}

// FFmpegConfig FFmpeg相关配置
type FFmpegConfig struct {
	BinaryPath  string        `mapstructure:"binary_path"`
	ProbePath   string        `mapstructure:"probe_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	VideoCodec  string        `mapstructure:"video_codec"`
	Threads     int           `mapstructure:"threads"`
	HideBanner  bool          `mapstructure:"hide_banner"`
}

// ThumbnailConfig 缩略图参数
type ThumbnailConfig struct {
	OffsetSeconds float64 `mapstructure:"offset_seconds"`
	Width         int     `mapstructure:"width"`
	Quality       int     `mapstructure:"quality"`
}

// PreviewConfig 预览视频参数
type PreviewConfig struct {
	Height        int    `mapstructure:"height"`
	CRF           int    `mapstructure:"crf"`
	Preset        string `mapstructure:"preset"`
	AudioCodec    string `mapstructure:"audio_codec"`
	FallbackAudio string `mapstructure:"fallback_audio"`
	AudioBitrate  string `mapstructure:"audio_bitrate"`
}

// HLSConfig 自适应码流打包参数
type HLSConfig struct {
	Height         int    `mapstructure:"height"`
	CRF            int    `mapstructure:"crf"`
	Preset         string `mapstructure:"preset"`
	AudioBitrate   string `mapstructure:"audio_bitrate"`
	SegmentSeconds int    `mapstructure:"segment_seconds"`
	PlaylistName   string `mapstructure:"playlist_name"`
	MasterName     string `mapstructure:"master_name"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// ProfilingConfig pyroscope 持续剖析
type ProfilingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServerAddress string `mapstructure:"server_address"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	BootstrapServers     []string          `mapstructure:"bootstrap_servers"`
	ClientID             string            `mapstructure:"client_id"`
	GroupID              string            `mapstructure:"group_id"`
	Enabled              bool              `mapstructure:"enabled"`
	Topics               KafkaTopicsConfig `mapstructure:"topics"`
	CommitOnDecodeError  bool              `mapstructure:"commit_on_decode_error"`
	CommitOnProcessError bool              `mapstructure:"commit_on_process_error"`
}

type KafkaTopicsConfig struct {
	ObjectFinalized     string `mapstructure:"object_finalized"`
	DerivativeCompleted string `mapstructure:"derivative_completed"`
}

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// SetGlobalConfig 设置全局配置
func SetGlobalConfig(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig 获取全局配置，未初始化时返回 nil
func GetGlobalConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("storage.driver", "minio")
	v.SetDefault("metadata.driver", "mysql")
	v.SetDefault("metadata.table", "posts")
	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.client_id", "derivative-service")
	v.SetDefault("kafka.group_id", "derivative-service-group")
	v.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	v.SetDefault("kafka.topics.object_finalized", "storage.object.finalized")
	v.SetDefault("kafka.topics.derivative_completed", "derivative.completed")
	v.SetDefault("kafka.commit_on_decode_error", true)
	v.SetDefault("kafka.commit_on_process_error", true)
	v.SetDefault("grpc_server.enabled", true)

	// 设置环境变量前缀
	v.SetEnvPrefix("DERIVATIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

// Default 返回仅包含默认值的配置，供测试与 Lambda 入口使用
func Default() *Config {
	c := &Config{}
	c.normalize()
	return c
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "minio"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = c.Minio.BucketName
	}
	if c.Metadata.Driver == "" {
		c.Metadata.Driver = "mysql"
	}
	if c.Metadata.Table == "" {
		c.Metadata.Table = "posts"
	}

	if c.Public.StorageHost == "" {
		c.Public.StorageHost = "storage.example.com"
	}
	if c.Public.Scheme == "" {
		c.Public.Scheme = "https"
	}

	if c.Pipeline.VideoPrefix == "" {
		c.Pipeline.VideoPrefix = "videos/"
	}
	if c.Pipeline.ContentTypePrefix == "" {
		c.Pipeline.ContentTypePrefix = "video/"
	}
	if c.Pipeline.TempDir == "" {
		c.Pipeline.TempDir = "/tmp/derivative"
	}

	ff := &c.Transcode.FFmpeg
	if ff.BinaryPath == "" {
		ff.BinaryPath = "ffmpeg"
	}
	if ff.ProbePath == "" {
		ff.ProbePath = "ffprobe"
	}
	if ff.VideoCodec == "" {
		ff.VideoCodec = "libx264"
	}
	if ff.Threads < 0 {
		ff.Threads = 0
	}
	if ff.Timeout == 0 {
		ff.Timeout = 5 * time.Minute
	}

	th := &c.Transcode.Thumbnail
	if th.OffsetSeconds <= 0 {
		th.OffsetSeconds = 1
	}
	if th.Width <= 0 {
		th.Width = 480
	}
	if th.Quality <= 0 {
		th.Quality = 2
	}

	pv := &c.Transcode.Preview
	if pv.Height <= 0 {
		pv.Height = 480
	}
	if pv.CRF <= 0 {
		pv.CRF = 28
	}
	if pv.Preset == "" {
		pv.Preset = "fast"
	}
	if pv.AudioCodec == "" {
		pv.AudioCodec = "copy"
	}
	if pv.FallbackAudio == "" {
		pv.FallbackAudio = "aac"
	}
	if pv.AudioBitrate == "" {
		pv.AudioBitrate = "128k"
	}

	hls := &c.Transcode.HLS
	if hls.Height <= 0 {
		hls.Height = 720
	}
	if hls.CRF <= 0 {
		hls.CRF = 23
	}
	if hls.Preset == "" {
		hls.Preset = "veryfast"
	}
	if hls.AudioBitrate == "" {
		hls.AudioBitrate = "128k"
	}
	if hls.SegmentSeconds <= 0 {
		hls.SegmentSeconds = 6
	}
	if hls.PlaylistName == "" {
		hls.PlaylistName = "playlist.m3u8"
	}
	if hls.MasterName == "" {
		hls.MasterName = "master.m3u8"
	}

	if c.Redis.ProgressTTL <= 0 {
		c.Redis.ProgressTTL = time.Hour
	}
	if c.GRPCServer.Host == "" {
		c.GRPCServer.Host = "0.0.0.0"
	}
	if c.GRPCServer.Port == 0 {
		c.GRPCServer.Port = 9095
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8085
	}
	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "derivative-service"
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.DialTimeout == 0 {
		c.ServiceRegistry.DialTimeout = 5 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}
	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "derivative-service"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "derivative-service-group"
	}
	if c.Kafka.Topics.ObjectFinalized == "" {
		c.Kafka.Topics.ObjectFinalized = "storage.object.finalized"
	}
	if c.Kafka.Topics.DerivativeCompleted == "" {
		c.Kafka.Topics.DerivativeCompleted = "derivative.completed"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetMinioEndpoint 获取MinIO端点
func (c *MinioConfig) GetMinioEndpoint() string {
	return c.Endpoint
}
