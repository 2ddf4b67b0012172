package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Validatable interface{ Validate() error }

type Options struct {
	Paths         []string
	Names         []string
	Type          string
	EnvPrefix     string
	OptionalFiles bool

	// DotEnv: .env файлы, которые грузятся в окружение до чтения конфига.
	// Уже выставленные переменные окружения не перетираются.
	DotEnv []string
}

func Load[T any](opts Options) (T, error) {
	var zero T
	var cfg T

	if err := loadDotEnv(opts.DotEnv); err != nil {
		return zero, err
	}

	v := viper.New()
	typ := opts.Type
	if typ == "" {
		typ = "yaml"
	}
	v.SetConfigType(typ)

	foundAny := false

	for _, name := range opts.Names {
		if name == "" {
			continue
		}
		fv := viper.New()
		fv.SetConfigType(typ)
		for _, p := range opts.Paths {
			if p != "" {
				fv.AddConfigPath(p)
			}
		}
		fv.SetConfigName(name)
		if err := fv.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(fv.AllSettings()); err != nil {
				return zero, fmt.Errorf("merge %s: %w", name, err)
			}
			foundAny = true
		}
	}

	if !foundAny && !opts.OptionalFiles && len(opts.Names) > 0 {
		return zero, fmt.Errorf("config files not found in %v for names %v", opts.Paths, opts.Names)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return zero, fmt.Errorf("unmarshal config: %w", err)
	}

	if vv, ok := any(&cfg).(Validatable); ok {
		if err := vv.Validate(); err != nil {
			return zero, fmt.Errorf("invalid config: %w", err)
		}
	}

	return cfg, nil
}

func MustLoad[T any](opts Options) *T {
	cfg, err := Load[T](opts)
	if err != nil {
		panic(err)
	}
	return &cfg
}

func loadDotEnv(files []string) error {
	for _, f := range files {
		if strings.TrimSpace(f) == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
