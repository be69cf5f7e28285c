package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Secret    string `yaml:"secret"`
	SiteURL   string `yaml:"site_url"`
	CorsAllow string `yaml:"cors_allow"`
}

type DBConfig struct {
	Type    string `yaml:"type"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	User    string `yaml:"user"`
	Passwd  string `yaml:"passwd"`
	MaxConn int    `yaml:"max_conn"`
	IdleConn int   `yaml:"idle_conn"`
	Debug   bool   `yaml:"debug"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Passwd string `yaml:"passwd"`
	Db     int    `yaml:"db"`
}

type SmtpConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// AssetsConfig points at the external image host used for product pictures.
type AssetsConfig struct {
	Endpoint string `yaml:"endpoint"`
	ApiKey   string `yaml:"api_key"`
	Secret   string `yaml:"secret"`
	Folder   string `yaml:"folder"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig    `yaml:"system"`
	Web      WebConfig    `yaml:"web"`
	Database DBConfig     `yaml:"database"`
	Redis    RedisConfig  `yaml:"redis"`
	Smtp     SmtpConfig   `yaml:"smtp"`
	Assets   AssetsConfig `yaml:"assets"`
	Logger   LogConfig    `yaml:"logger"`
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.System.Workdir, 0755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "lensmart",
		Location: "Asia/Jakarta",
		Workdir:  "/var/lensmart",
		Debug:    true,
	},
	Web: WebConfig{
		Host:    "0.0.0.0",
		Port:    1816,
		Secret:  "9b6de5cc-lensmart-0cf59338-a1f3",
		SiteURL: "http://localhost:5173",
	},
	Database: DBConfig{
		Type:    "postgres",
		Host:    "127.0.0.1",
		Port:    5432,
		Name:    "lensmart",
		User:    "postgres",
		Passwd:  "postgres",
		MaxConn: 100,
		IdleConn: 10,
	},
	Redis: RedisConfig{
		Addr: "127.0.0.1:6379",
		Db:   0,
	},
	Smtp: SmtpConfig{
		Host: "smtp.mailtrap.io",
		Port: 2525,
		From: "no-reply@lensmart.io",
	},
	Assets: AssetsConfig{
		Folder: "products",
	},
	Logger: LogConfig{
		Mode:     "development",
		Filename: "/var/lensmart/lensmart.log",
	},
}

// LoadConfig reads the YAML configuration file and applies environment
// overrides. A missing file falls back to DefaultAppConfig.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if data, err := os.ReadFile(cfile); err == nil {
		cfg = new(AppConfig)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "config parse error: %v\n", err)
			os.Exit(1)
		}
	}

	setEnvStrValue("LENSMART_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvStrValue("LENSMART_WEB_SECRET", &cfg.Web.Secret)
	setEnvStrValue("LENSMART_WEB_SITE_URL", &cfg.Web.SiteURL)
	setEnvStrValue("LENSMART_DB_TYPE", &cfg.Database.Type)
	setEnvStrValue("LENSMART_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("LENSMART_DB_PORT", &cfg.Database.Port)
	setEnvStrValue("LENSMART_DB_NAME", &cfg.Database.Name)
	setEnvStrValue("LENSMART_DB_USER", &cfg.Database.User)
	setEnvStrValue("LENSMART_DB_PWD", &cfg.Database.Passwd)
	setEnvStrValue("LENSMART_REDIS_ADDR", &cfg.Redis.Addr)
	setEnvStrValue("LENSMART_REDIS_PWD", &cfg.Redis.Passwd)
	setEnvStrValue("LENSMART_SMTP_HOST", &cfg.Smtp.Host)
	setEnvIntValue("LENSMART_SMTP_PORT", &cfg.Smtp.Port)
	setEnvStrValue("LENSMART_SMTP_USER", &cfg.Smtp.Username)
	setEnvStrValue("LENSMART_SMTP_PWD", &cfg.Smtp.Password)
	setEnvStrValue("LENSMART_ASSETS_ENDPOINT", &cfg.Assets.Endpoint)
	setEnvStrValue("LENSMART_ASSETS_API_KEY", &cfg.Assets.ApiKey)
	setEnvStrValue("LENSMART_ASSETS_SECRET", &cfg.Assets.Secret)

	cfg.initDirs()
	return cfg
}

func setEnvStrValue(evar string, val *string) {
	if v := os.Getenv(evar); v != "" {
		*val = v
	}
}

func setEnvIntValue(evar string, val *int) {
	if v := os.Getenv(evar); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*val = i
		}
	}
}
