package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const defaultPath = "./configs/config.local.yaml"

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name        string
	Env         string
	Prefix      string // 路由前缀，如 /api/v1
	HTTP        HTTP
	CORSOrigins []string
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	LeewaySec         int
}

type Mongo struct {
	Driver     string // mongo | memory
	URI        string
	Database   string
	TimeoutSec int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Security struct {
	BcryptCost int
}

type Pagination struct {
	DefaultLimit int
	MaxLimit     int // 0 = 不限制
}

type Limits struct {
	RPS               float64
	Burst             int
	MaxInFlight       int64
	MaxBodyBytes      int64
	RequestTimeoutSec int
}

type Config struct {
	App        App
	Log        Log
	JWT        JWT
	Mongo      Mongo
	Redis      Redis `mapstructure:"redis"`
	Security   Security
	Pagination Pagination
	Limits     Limits
}

// 旧部署使用的环境变量名，优先级低于 SHOP_* 形式
var legacyEnv = map[string]string{
	"app.prefix":            "APP_PREFIX",
	"app.http.port":         "APP_PORT",
	"mongo.uri":             "MONGO_URI",
	"mongo.database":        "MONGO_DB_NAME",
	"jwt.secret":            "JWT_SECRET",
	"jwt.accesstokenttlmin": "JWT_EXPIRES_IN_MINUTES",
}

var defaults = map[string]any{
	"app.name":                 "shopapi",
	"app.env":                  "local",
	"app.http.host":            "0.0.0.0",
	"app.http.readtimeoutsec":  10,
	"app.http.writetimeoutsec": 15,
	"app.http.idletimeoutsec":  60,
	"app.corsorigins":          []string{},
	"log.level":                "info",
	"log.json":                 false,
	"log.file.enable":          false,
	"log.file.filename":        "logs/app.log",
	"log.file.maxsizemb":       100,
	"log.file.maxbackups":      7,
	"log.file.maxagedays":      30,
	"log.file.compress":        true,
	"jwt.issuer":               "",
	"jwt.leewaysec":            0,
	"mongo.driver":             "mongo",
	"mongo.timeoutsec":         10,
	"redis.addr":               "",
	"redis.password":           "",
	"redis.db":                 0,
	"security.bcryptcost":      10,
	"pagination.defaultlimit":  20,
	"pagination.maxlimit":      0,
	"limits.rps":               200,
	"limits.burst":             400,
	"limits.maxinflight":       300,
	"limits.maxbodybytes":      16 << 20,
	"limits.requesttimeoutsec": 10,
}

// Load 读取 yaml（可选）+ 环境变量。path 为空时取 CONFIG_PATH，再退回默认路径；
// 只有默认路径允许文件不存在。
func Load(path string) (*Config, error) {
	v := viper.New()
	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultPath
		explicit = false
	}

	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "SHOP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, err
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); explicit || !errors.Is(err, os.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 列出所有缺失的必填项
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.App.Prefix) == "" {
		missing = append(missing, "app.prefix (APP_PREFIX)")
	}
	if c.App.HTTP.Port <= 0 {
		missing = append(missing, "app.http.port (APP_PORT)")
	}
	switch c.Mongo.Driver {
	case "memory":
	case "mongo", "":
		if c.Mongo.URI == "" {
			missing = append(missing, "mongo.uri (MONGO_URI)")
		}
		if c.Mongo.Database == "" {
			missing = append(missing, "mongo.database (MONGO_DB_NAME)")
		}
	default:
		return fmt.Errorf("config: unsupported mongo.driver %q", c.Mongo.Driver)
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "jwt.secret (JWT_SECRET)")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		missing = append(missing, "jwt.accessTokenTTLMin (JWT_EXPIRES_IN_MINUTES)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
