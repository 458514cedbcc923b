package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

type Config struct {
	Log      Log      `yaml:"log"`
	Telegram Telegram `yaml:"telegram"`
	Reminder Reminder `yaml:"reminder"`
	Queue    Queue    `yaml:"queue"`
	Status   Status   `yaml:"status"`
}

type Telegram struct {
	// Bot token, obtain it via BotFather. BOT_TOKEN env overrides it
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789" validate:"required"`
	// Long polling timeout in seconds
	PollTimeout int `yaml:"poll_timeout" example:"60" validate:"min=1,max=600"`
	// Log raw bot API traffic
	Debug bool `yaml:"debug" example:"false"`
}

type Reminder struct {
	// Longest accepted delay between scheduling and firing
	MaxDelay time.Duration `yaml:"max_delay" example:"25h" validate:"gt=0"`
}

type Queue struct {
	// Number of parallel lanes, events of one user always share a lane
	Lanes int `yaml:"lanes" example:"8" validate:"min=1,max=256"`
	// Buffered events per lane
	Buffer int `yaml:"buffer" example:"64" validate:"min=1"`
}

type Status struct {
	// Status HTTP listen address, empty disables the server
	Listen string `yaml:"listen" example:"127.0.0.1:8080" validate:"omitempty,hostname_port"`
}

type Log struct {
	// Minimum console level
	Level string `yaml:"level" example:"info" validate:"omitempty,oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	return LoadFile(defaultPath)
}

// LoadFile reads path if it exists, applies defaults and env overrides, then validates.
func LoadFile(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, &result); err != nil {
			return nil, oops.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if token := os.Getenv("BOT_TOKEN"); token != "" {
		result.Telegram.Token = token
	}
	if result.Telegram.PollTimeout == 0 {
		result.Telegram.PollTimeout = 60
	}
	if result.Reminder.MaxDelay == 0 {
		result.Reminder.MaxDelay = 25 * time.Hour
	}
	if result.Queue.Lanes == 0 {
		result.Queue.Lanes = 8
	}
	if result.Queue.Buffer == 0 {
		result.Queue.Buffer = 64
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
