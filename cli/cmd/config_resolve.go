package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	granaconfig "github.com/pithecene-io/grana/cli/config"
	"github.com/pithecene-io/grana/display/webhookdisplay"
	"github.com/pithecene-io/grana/errs"
)

// resolvedConfig wraps an optional *config.Config with nil-safe accessors,
// so run.go can read config-file defaults without a nil check at every
// call site (the config file itself is optional; CLI flags always win).
type resolvedConfig struct {
	cfg *granaconfig.Config
}

func loadOptionalConfig(c *cli.Context) (*resolvedConfig, error) {
	path := c.String("config")
	if path == "" {
		return &resolvedConfig{}, nil
	}
	loaded, err := granaconfig.Load(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindLoad, "loading config file", err)
	}
	return &resolvedConfig{cfg: loaded}, nil
}

func (r *resolvedConfig) strategy() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Strategy
}

func (r *resolvedConfig) display() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Display
}

func (r *resolvedConfig) strictOutcomes() bool {
	return r.cfg != nil && r.cfg.StrictOutcomes
}

func (r *resolvedConfig) interactive() bool {
	return r.cfg != nil && r.cfg.Interactive
}

func (r *resolvedConfig) reportFormat() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Report.Format
}

func (r *resolvedConfig) reportPath() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Report.Path
}

func (r *resolvedConfig) webhookURL() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Webhook.URL
}

func (r *resolvedConfig) webhookHeaders() map[string]string {
	if r.cfg == nil {
		return nil
	}
	return r.cfg.Webhook.Headers
}

func (r *resolvedConfig) webhookTimeout() time.Duration {
	if r.cfg == nil {
		return webhookdisplay.DefaultTimeout
	}
	return r.cfg.Webhook.Timeout.Duration
}

func (r *resolvedConfig) webhookRetries() int {
	if r.cfg == nil || r.cfg.Webhook.Retries == nil {
		return webhookdisplay.DefaultRetries
	}
	return *r.cfg.Webhook.Retries
}

func (r *resolvedConfig) redisURL() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Redis.URL
}

func (r *resolvedConfig) redisChannel() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Redis.Channel
}

// resolveString returns the CLI flag value if explicitly set on the
// command line, else configVal if non-empty, else the flag's own
// (urfave) default.
func resolveString(c *cli.Context, flag, configVal string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	if configVal != "" {
		return configVal
	}
	return c.String(flag)
}

// resolveBool returns the CLI flag value if explicitly set, else
// configVal if true, else the flag's own default.
func resolveBool(c *cli.Context, flag string, configVal bool) bool {
	if c.IsSet(flag) {
		return c.Bool(flag)
	}
	if configVal {
		return true
	}
	return c.Bool(flag)
}
