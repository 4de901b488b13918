package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"booking-service/internal/model"
	"booking-service/internal/schedule"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type SessionTypeConfig struct {
	Name               string `mapstructure:"name"`
	Label              string `mapstructure:"label"`
	RequiresStudentAge bool   `mapstructure:"requires_student_age"`
	DurationMinutes    int    `mapstructure:"duration_minutes"`
}

// RuleConfig is one row of the weekly table. A row listing several session types
// expands into one rule per type.
type RuleConfig struct {
	Start                  string   `mapstructure:"start"`
	End                    string   `mapstructure:"end"`
	Days                   []string `mapstructure:"days"`
	IntervalMinutes        int      `mapstructure:"interval_minutes"`
	MinSlotDurationMinutes int      `mapstructure:"min_slot_duration_minutes"`
	SessionTypes           []string `mapstructure:"session_types"`
}

type Config struct {
	AppPort string `mapstructure:"APP_PORT"`

	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBName     string `mapstructure:"DB_NAME"`

	NatsURL string `mapstructure:"NATS_URL"`

	Timezone     string        `mapstructure:"BOOKING_TIMEZONE"`
	NonceHashKey string        `mapstructure:"BOOKING_NONCE_HASH_KEY"`
	NonceTTL     time.Duration `mapstructure:"BOOKING_NONCE_TTL"`

	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminEmail        string `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int    `mapstructure:"REDIS_DB"`
	RateLimitMax        int    `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitExpiration int    `mapstructure:"RATE_LIMIT_EXPIRATION"`

	S3Endpoint         string `mapstructure:"S3_ENDPOINT"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	S3BucketName       string `mapstructure:"S3_BUCKET_NAME"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	S3UsePathStyle     bool   `mapstructure:"S3_USE_PATH_STYLE"`

	APNSAuthKeyPath string `mapstructure:"APNS_AUTH_KEY_PATH"`
	APNSKeyID       string `mapstructure:"APNS_KEY_ID"`
	APNSTeamID      string `mapstructure:"APNS_TEAM_ID"`
	APNSTopic       string `mapstructure:"APNS_TOPIC"`
	APNSMode        string `mapstructure:"APNS_MODE"`

	SessionTypes  []SessionTypeConfig `mapstructure:"session_types"`
	ScheduleRules []RuleConfig        `mapstructure:"schedule_rules"`
}

var envDefaults = map[string]interface{}{
	"APP_PORT":               "8001",
	"DB_USER":                "",
	"DB_PASSWORD":            "",
	"DB_HOST":                "localhost",
	"DB_PORT":                "5432",
	"DB_NAME":                "booking",
	"NATS_URL":               "nats://localhost:4222",
	"BOOKING_TIMEZONE":       "Africa/Kigali",
	"BOOKING_NONCE_HASH_KEY": "",
	"BOOKING_NONCE_TTL":      "1h",
	"JWT_SECRET":             "",
	"ADMIN_EMAIL":            "",
	"ADMIN_PASSWORD_HASH":    "",
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"RATE_LIMIT_MAX":         100,
	"RATE_LIMIT_EXPIRATION":  60,
	"S3_ENDPOINT":            "",
	"AWS_REGION":             "us-east-1",
	"S3_BUCKET_NAME":         "",
	"AWS_ACCESS_KEY_ID":      "",
	"AWS_SECRET_ACCESS_KEY":  "",
	"S3_USE_PATH_STYLE":      false,
	"APNS_AUTH_KEY_PATH":     "",
	"APNS_KEY_ID":            "",
	"APNS_TEAM_ID":           "",
	"APNS_TOPIC":             "",
	"APNS_MODE":              "development",
}

// Load reads .env.dev (if present), the environment and an optional booking.yaml
// found in one of searchPaths. Without a schedule section the built-in table is used.
func Load(searchPaths ...string) (*Config, error) {
	if err := godotenv.Load(".env.dev"); err != nil {
		log.Println("No .env.dev file found, reading from environment variables")
	}

	v := viper.New()
	v.SetConfigName("booking")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{".", "./config"}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	for key, value := range envDefaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read booking config: %w", err)
		}
		log.Println("No booking.yaml found, using the built-in schedule")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if len(cfg.SessionTypes) == 0 {
		cfg.SessionTypes = DefaultSessionTypes()
	}
	if len(cfg.ScheduleRules) == 0 {
		cfg.ScheduleRules = DefaultScheduleRules()
	}

	return &cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Catalogue() (schedule.Catalogue, error) {
	infos := make([]model.SessionTypeInfo, 0, len(c.SessionTypes))
	for _, st := range c.SessionTypes {
		infos = append(infos, model.SessionTypeInfo{
			Name:               model.SessionType(strings.TrimSpace(st.Name)),
			Label:              st.Label,
			RequiresStudentAge: st.RequiresStudentAge,
			DurationMinutes:    st.DurationMinutes,
		})
	}
	return schedule.NewCatalogue(infos...)
}

// Rules converts the configured table into validated rules. Every rule must reference a
// session type from the catalogue.
func (c *Config) Rules(catalogue schedule.Catalogue) ([]model.WeeklyScheduleRule, error) {
	var rules []model.WeeklyScheduleRule
	for i, row := range c.ScheduleRules {
		expanded, err := row.toRules()
		if err != nil {
			return nil, fmt.Errorf("schedule row %d: %w", i, err)
		}
		rules = append(rules, expanded...)
	}

	if err := catalogue.CheckRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r RuleConfig) toRules() ([]model.WeeklyScheduleRule, error) {
	start, err := model.ParseClock(r.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseEnd(r.End)
	if err != nil {
		return nil, err
	}

	days, err := parseDays(r.Days)
	if err != nil {
		return nil, err
	}

	if len(r.SessionTypes) == 0 {
		return nil, fmt.Errorf("no session types")
	}

	rules := make([]model.WeeklyScheduleRule, 0, len(r.SessionTypes))
	for _, st := range r.SessionTypes {
		rules = append(rules, model.WeeklyScheduleRule{
			Start:                  start,
			End:                    end,
			Days:                   days,
			IntervalMinutes:        r.IntervalMinutes,
			MinSlotDurationMinutes: r.MinSlotDurationMinutes,
			SessionType:            model.SessionType(strings.TrimSpace(st)),
		})
	}
	return rules, nil
}

// parseEnd also accepts "24:00" as the end of the day.
func parseEnd(s string) (model.Clock, error) {
	if strings.TrimSpace(s) == "24:00" {
		return model.MinutesPerDay, nil
	}
	return model.ParseClock(s)
}

// parseDays accepts day names, "everyday", "weekend", "weekdays" and integer indices
// where Sunday is 0.
func parseDays(values []string) (model.WeekdaySet, error) {
	var set model.WeekdaySet
	for _, raw := range values {
		v := strings.ToLower(strings.TrimSpace(raw))
		switch v {
		case "everyday", "daily", "all":
			set |= model.EveryDay
			continue
		case "weekend":
			set |= model.NewWeekdaySet(time.Saturday, time.Sunday)
			continue
		case "weekdays":
			set |= model.NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
			continue
		}

		if n, err := strconv.Atoi(v); err == nil {
			if n < 0 || n > 6 {
				return 0, fmt.Errorf("weekday index %d out of range 0-6", n)
			}
			set = set.With(time.Weekday(n))
			continue
		}

		d, err := model.ParseWeekday(v)
		if err != nil {
			return 0, err
		}
		set = set.With(d)
	}
	if set == 0 {
		return 0, fmt.Errorf("no days")
	}
	return set, nil
}
