package config

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/curtisnewbie/taskq/util/async"
	"github.com/curtisnewbie/taskq/util/errs"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var (
	// regex for arg expansion
	resolveArgRegexp = regexp.MustCompile(`\${[a-zA-Z0-9\\-\\_\.]+}`)

	setDefPropFuncs []func() (k string, defVal any)
)

// Application configuration backed by viper, it's thread-safe.
//
// Use [NewAppConfig] to create one, the registered default props are applied.
type AppConfig struct {
	vp   *viper.Viper
	rwmu sync.RWMutex
}

// Resolved TaskQueue configuration.
type TaskQueueConf struct {
	Name        string
	Concurrency int
	MaxPending  int
}

// Options for [async.NewTaskQueue].
func (c TaskQueueConf) Options() []async.TaskQueueOption {
	return []async.TaskQueueOption{
		async.WithQueueName(c.Name),
		async.WithMaxPending(c.MaxPending),
	}
}

func NewAppConfig() *AppConfig {
	a := &AppConfig{vp: viper.New()}
	for _, f := range setDefPropFuncs {
		a.SetDefProp(f())
	}
	return a
}

// Set value for the prop
func (a *AppConfig) SetProp(prop string, val any) {
	a.rwmu.Lock()
	defer a.rwmu.Unlock()
	a.vp.Set(prop, val)
}

// Set default value for the prop
func (a *AppConfig) SetDefProp(prop string, defVal any) {
	a.rwmu.Lock()
	defer a.rwmu.Unlock()
	a.vp.SetDefault(prop, defVal)
}

// Check whether the prop exists
func (a *AppConfig) HasProp(prop string) bool {
	return returnWithReadLock(a, func() bool { return a.vp.IsSet(prop) })
}

// Get prop as string slice
func (a *AppConfig) GetPropStrSlice(prop string) []string {
	return returnWithReadLock(a, func() []string { return a.vp.GetStringSlice(prop) })
}

// Get prop as int
func (a *AppConfig) GetPropInt(prop string) int {
	return returnWithReadLock(a, func() int { return a.vp.GetInt(prop) })
}

// Get prop as int, error is returned if the value is not a valid int.
func (a *AppConfig) GetPropIntE(prop string) (int, error) {
	v := returnWithReadLock(a, func() any { return a.vp.Get(prop) })
	if v == nil {
		return 0, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, errs.ErrInvalidConfiguration.Wrapf(err, "prop '%v' is not a valid int", prop)
	}
	return n, nil
}

// Get prop as time.Duration
func (a *AppConfig) GetPropDur(prop string, unit time.Duration) time.Duration {
	return time.Duration(a.GetPropInt(prop)) * unit
}

// Get prop as bool
func (a *AppConfig) GetPropBool(prop string) bool {
	return returnWithReadLock(a, func() bool { return a.vp.GetBool(prop) })
}

/*
Get prop as string

If the value is an argument that can be expanded, the actual value will be resolved if possible.

e.g, for "name" : "${secretName}".

This func will attempt to resolve the actual value for '${secretName}'.
*/
func (a *AppConfig) GetPropStr(prop string) string {
	return a.ResolveArg(returnWithReadLock(a, func() string { return a.vp.GetString(prop) }))
}

// Overwrite existing conf using environment and cli args.
func (a *AppConfig) OverwriteConf(args []string) {
	// overwrite loaded configuration with environment variables
	a.overwriteConf(ArgKeyVal(os.Environ()))
	// overwrite the loaded configuration with cli arguments
	a.overwriteConf(ArgKeyVal(args))
}

/*
Default way to read config file.

The config file is located using GuessConfigFilePath(args), a missing config file is not an error.

Notice that the loaded configuration can be overriden by environment variables and the cli arguments
as well by using `KEY=VALUE` syntax.
*/
func (a *AppConfig) DefaultReadConfig(args []string) {
	defConfigFile := GuessConfigFilePath(args)
	if err := a.LoadConfigFromFile(defConfigFile); err != nil {
		log.Debugf("Failed to load config file, file: %v, %v", defConfigFile, err)
	} else {
		log.Infof("Loaded config file: %v", defConfigFile)
	}
	a.OverwriteConf(args)
}

// Load config from io Reader.
//
// It's the caller's responsibility to close the provided reader.
//
// Calling this method overides previously loaded config.
func (a *AppConfig) LoadConfigFromReader(reader io.Reader) error {
	a.rwmu.Lock()
	defer a.rwmu.Unlock()

	a.vp.SetConfigType("yml")
	if err := a.vp.MergeConfig(reader); err != nil {
		return errs.ErrInvalidConfiguration.Wrapf(err, "failed to load config from reader")
	}
	return nil
}

// Load config from string.
//
// Calling this method overides previously loaded config.
func (a *AppConfig) LoadConfigFromStr(s string) error {
	return a.LoadConfigFromReader(bytes.NewReader([]byte(s)))
}

// Load config from file.
//
// Calling this method overides previously loaded config.
func (a *AppConfig) LoadConfigFromFile(configFile string) error {
	if configFile == "" {
		return nil
	}

	f, err := os.Open(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.ErrInvalidConfiguration.WithInternalMsg("unable to find config file: '%s'", configFile)
		}
		return errs.WrapErrf(err, "failed to open config file: '%s'", configFile)
	}
	defer f.Close()

	if err := a.LoadConfigFromReader(f); err != nil {
		return errs.ErrInvalidConfiguration.Wrapf(err, "failed to load config file: '%s'", configFile)
	}
	return nil
}

func (a *AppConfig) overwriteConf(kvs map[string][]string) {
	for k, v := range kvs {
		if len(v) == 1 {
			a.SetProp(k, v[0])
		} else {
			a.SetProp(k, v)
		}
	}
}

// Resolve argument, e.g., for arg like '${someArg}', it will in fact look for 'someArg' in os.Env
func (a *AppConfig) ResolveArg(arg string) string {
	return resolveArgRegexp.ReplaceAllStringFunc(arg, func(s string) string {
		r := []rune(s)
		key := string(r[2 : len(r)-1])
		val := os.Getenv(key)

		if val == "" {
			val = a.GetPropStr(key)
		}

		if val == "" {
			val = s
		}
		return val
	})
}

// Resolve and validate TaskQueue configuration.
//
// If taskqueue.concurrency is 0, the concurrency is calculated using taskqueue.concurrency-per-cpu and GOMAXPROCS.
// Returns error matching [errs.ErrInvalidConfiguration] if any of the props is invalid.
func (a *AppConfig) TaskQueueConf() (TaskQueueConf, error) {
	c := TaskQueueConf{Name: a.GetPropStr(PropTaskQueueName)}
	if strings.TrimSpace(c.Name) == "" {
		return c, errs.ErrInvalidConfiguration.WithInternalMsg("'%v' must not be empty", PropTaskQueueName)
	}

	var err error
	if c.Concurrency, err = a.GetPropIntE(PropTaskQueueConcurrency); err != nil {
		return c, err
	}
	if c.Concurrency < 0 {
		return c, errs.ErrInvalidConfiguration.WithInternalMsg("'%v' must not be negative, got %d", PropTaskQueueConcurrency, c.Concurrency)
	}
	if c.Concurrency == 0 {
		perCpu, err := a.GetPropIntE(PropTaskQueueConcurrencyPerCpu)
		if err != nil {
			return c, err
		}
		c.Concurrency = async.CalcPoolSize(perCpu, 1)
	}

	if c.MaxPending, err = a.GetPropIntE(PropTaskQueueMaxPending); err != nil {
		return c, err
	}
	if c.MaxPending < 0 {
		return c, errs.ErrInvalidConfiguration.WithInternalMsg("'%v' must not be negative, got %d", PropTaskQueueMaxPending, c.MaxPending)
	}
	return c, nil
}

// Register default value for the prop, it's applied to every AppConfig created afterwards.
func SetDefProp(prop string, defVal any) {
	setDefPropFuncs = append(setDefPropFuncs, func() (string, any) { return prop, defVal })
}

func returnWithReadLock[T any](a *AppConfig, f func() T) T {
	a.rwmu.RLock()
	defer a.rwmu.RUnlock()
	return f()
}

// Parse CLI args to key-value map
func ArgKeyVal(args []string) map[string][]string {
	m := map[string][]string{}
	for _, s := range args {
		var eq int = strings.Index(s, "=")
		if eq == -1 {
			continue
		}

		key := strings.TrimSpace(s[:eq])
		val := strings.TrimSpace(s[eq+1:])
		if prev, ok := m[key]; ok {
			m[key] = append(prev, val)
		} else {
			m[key] = []string{val}
		}
	}
	return m
}

// Guess config file path.
//
// It first looks for the arg that matches the pattern "configFile=/path/to/configFile".
// If none is found, it's by default 'conf.yml'.
func GuessConfigFilePath(args []string) string {
	path := ExtractArgValue(args, func(key string) bool { return key == "configFile" })
	if strings.TrimSpace(path) == "" {
		path = "conf.yml"
	}
	return path
}

/*
Parse CLI Arg to extract a value from arg, [key]=[value]

e.g.,

To look for 'configFile=?'.

	path := ExtractArgValue(args, func(key string) bool { return key == "configFile" }).
*/
func ExtractArgValue(args []string, predicate func(key string) bool) string {
	for _, s := range args {
		var eq int = strings.Index(s, "=")
		if eq != -1 {
			if key := s[:eq]; predicate(key) {
				return s[eq+1:]
			}
		}
	}
	return ""
}
