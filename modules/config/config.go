package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"reflect"
	a "vsc-polls/modules/aggregate"

	"github.com/chebyrash/promise"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const DATA_DIR = "data"
const CONFIG_DIR = DATA_DIR + "/config"

// Prefix of environment overrides, e.g. POLLS_MAX_POLLS
const ENV_PREFIX = "polls"

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Config is a JSON file backed value of T. On Init the file is loaded (or written with
// the defaults), environment overrides are applied and the result is validated.
type Config[T any] struct {
	defaultValue T
	dir          string

	loaded bool
	value  T
}

var _ a.Plugin = &Config[struct{}]{}

func New[T any](defaultValue T, dataDir *string) *Config[T] {
	dir := CONFIG_DIR
	if dataDir != nil {
		dir = path.Join(*dataDir, "config")
	}
	return &Config[T]{defaultValue: defaultValue, dir: dir, value: defaultValue}
}

func (c *Config[T]) filePath() string {
	name := reflect.TypeOf((*T)(nil)).Elem().Name()
	return path.Join(c.dir, name+".json")
}

func (c *Config[T]) Init() error {
	f, err := os.Open(c.filePath())
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		err = c.Update(func(t *T) {
			*t = c.defaultValue
		})
		if err != nil {
			return err
		}
	} else {
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		value := c.defaultValue
		if err := json.Unmarshal(b, &value); err != nil {
			return fmt.Errorf("failed to parse %s: %w", c.filePath(), err)
		}
		c.value = value
	}

	if err := envconfig.Process(ENV_PREFIX, &c.value); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	if err := configValidator.Struct(c.value); err != nil {
		return fmt.Errorf("invalid %s: %w", reflect.TypeOf((*T)(nil)).Elem().Name(), err)
	}

	c.loaded = true
	return nil
}

func (c *Config[T]) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		resolve(nil)
	})
}

func (c *Config[T]) Stop() error {
	return nil
}

func (c *Config[T]) Loaded() bool {
	return c.loaded
}

func (c *Config[T]) Get() T {
	return c.value
}

func (c *Config[T]) Update(updater func(*T)) error {
	temp := c.value
	updater(&temp)
	b, err := json.MarshalIndent(temp, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(path.Dir(c.filePath()), 0755)
	if err != nil {
		return err
	}
	err = os.WriteFile(c.filePath(), b, 0644)
	if err != nil {
		return err
	}
	c.value = temp
	return nil
}
