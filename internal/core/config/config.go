package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// HTTPTimeout bounds every outbound call to the gateway and courier APIs.
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT" default:"15s"`

	Redis    RedisConfig    `mapstructure:",squash"`
	Auth     AuthConfig     `mapstructure:",squash"`
	Razorpay RazorpayConfig `mapstructure:",squash"`
	Shipping ShippingConfig `mapstructure:",squash"`
	SMTP     SMTPConfig     `mapstructure:",squash"`
	Proxy    ProxyConfig    `mapstructure:",squash"`
}

// RedisConfig holds the document store connection.
type RedisConfig struct {
	// URL has the form redis://[:password@]host[:port][/database].
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// AuthConfig holds the caller token settings.
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 caller tokens.
	JWTSecret string `mapstructure:"JWT_SECRET" required:"true"`
}

// RazorpayConfig holds the payment gateway credentials.
type RazorpayConfig struct {
	URL       string `mapstructure:"RAZORPAY_URL" default:"https://api.razorpay.com"`
	KeyID     string `mapstructure:"RAZORPAY_KEY_ID" required:"true"`
	KeySecret string `mapstructure:"RAZORPAY_KEY_SECRET" required:"true"`
	Currency  string `mapstructure:"PAYMENT_CURRENCY" default:"INR"`
}

// ShippingConfig holds the courier aggregator credentials and the pickup snapshot.
type ShippingConfig struct {
	URL      string `mapstructure:"SHIPROCKET_URL" default:"https://apiv2.shiprocket.in"`
	Email    string `mapstructure:"SHIPROCKET_EMAIL" required:"true"`
	Password string `mapstructure:"SHIPROCKET_PASSWORD" required:"true"`

	// PickupLocation is the pickup nickname registered with the aggregator.
	PickupLocation string `mapstructure:"SHIPPING_PICKUP_LOCATION" default:"Primary"`
	PickupAddress  string `mapstructure:"SHIPPING_PICKUP_ADDRESS"`
	PickupCity     string `mapstructure:"SHIPPING_PICKUP_CITY"`
	PickupState    string `mapstructure:"SHIPPING_PICKUP_STATE"`
	PickupPincode  string `mapstructure:"SHIPPING_PICKUP_PINCODE"`
	PickupPhone    string `mapstructure:"SHIPPING_PICKUP_PHONE"`

	// CODPercent is the cash-on-delivery surcharge as a percentage of the order total.
	CODPercent float64 `mapstructure:"SHIPPING_COD_PERCENT" default:"2"`
}

// SMTPConfig holds the transactional email settings. An empty Host disables sending.
type SMTPConfig struct {
	Host     string `mapstructure:"SMTP_HOST"`
	Port     int    `mapstructure:"SMTP_PORT" default:"587"`
	Username string `mapstructure:"SMTP_USERNAME"`
	Password string `mapstructure:"SMTP_PASSWORD"`
	From     string `mapstructure:"SMTP_FROM" default:"orders@localhost"`
}

// ProxyConfig routes outbound API traffic through an HTTP proxy when enabled.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED" default:"false"`
	Host     string `mapstructure:"PROXY_HOST"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	bindTags(v, reflect.TypeOf(config))

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(reflect.ValueOf(&config).Elem()); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindTags binds every tagged key to the environment and registers its default.
func bindTags(v *viper.Viper, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Durations are int64 kinds, so only real structs are walked.
		if field.Type.Kind() == reflect.Struct {
			bindTags(v, field.Type)
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}

		_ = v.BindEnv(key)

		if def, ok := field.Tag.Lookup("default"); ok {
			v.SetDefault(key, def)
		}
	}
}

// validateRequired checks that fields marked as required have non-zero values.
func validateRequired(val reflect.Value) error {
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i)); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && val.Field(i).IsZero() {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}
