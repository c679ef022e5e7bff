package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Monitor     MonitorConfig
	Whois       WhoisConfig
	SMTP        SMTPConfig
	SMS         SMSConfig
	RemoteWrite RemoteWriteConfig
	JWTSecret   string
	CronSecret  string
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdleConns   int
}

type MonitorConfig struct {
	WorkerCount  int
	CheckTimeout time.Duration
	RunInterval  time.Duration
}

type WhoisConfig struct {
	APIURL string
	APIKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMSConfig struct {
	AuthKey    string
	TemplateID string
	APIURL     string
}

type RemoteWriteConfig struct {
	URL           string
	AuthToken     string
	BatchSize     int
	FlushInterval time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("DOMAINWATCH")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("monitor.workercount", 10)
	viper.SetDefault("monitor.checktimeout", "10s")
	viper.SetDefault("monitor.runinterval", "5m")
	viper.SetDefault("whois.apiurl", "https://api.apilayer.com/whois/query")
	viper.SetDefault("sms.apiurl", "https://control.msg91.com/api/v5/flow")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from", "alerts@example.com")
	viper.SetDefault("remotewrite.batchsize", 1000)
	viper.SetDefault("remotewrite.flushinterval", "10s")

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if key := os.Getenv("API_LAYER_KEY"); key != "" {
		cfg.Whois.APIKey = key
	}
	if key := os.Getenv("MSG91_AUTH_KEY"); key != "" {
		cfg.SMS.AuthKey = key
	}
	if id := os.Getenv("MSG91_TEMPLATE_ID"); id != "" {
		cfg.SMS.TemplateID = id
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		cfg.SMTP.User = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		cfg.SMTP.Password = pass
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		cfg.SMTP.From = from
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if secret := os.Getenv("CRON_SECRET"); secret != "" {
		cfg.CronSecret = secret
	}
	if url := os.Getenv("REMOTE_WRITE_URL"); url != "" {
		cfg.RemoteWrite.URL = url
	}
	if token := os.Getenv("REMOTE_WRITE_AUTH_TOKEN"); token != "" {
		cfg.RemoteWrite.AuthToken = token
	}

	return &cfg, nil
}
