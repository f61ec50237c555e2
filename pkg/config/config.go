// Package config persists command line arguments between invocations so a
// project can be rebuilt with a bare "tbrel docker-build --use-config".
package config

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/singer-contrib/tbrel/pkg/api"
	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
)

var log = utillog.StderrLog

// DefaultConfigPath specifies the default location of the config file.
const DefaultConfigPath = ".tbrelfile"

// Config is the serialized form of a previous invocation.
type Config struct {
	Tag       string            `json:"tag"`
	ProjectID string            `json:"projectID"`
	Flags     map[string]string `json:"flags"`
}

// Save persists the command line arguments to disk.
func Save(config *api.Config, cmd *cobra.Command) {
	c := Config{
		Tag:       config.Tag,
		ProjectID: config.ProjectID,
		Flags:     map[string]string{},
	}
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		c.Flags[flag.Name] = flag.Value.String()
	})
	data, err := json.Marshal(c)
	if err != nil {
		log.V(1).Infof("Unable to serialize config: %v", err)
		return
	}
	if err := os.WriteFile(DefaultConfigPath, data, 0644); err != nil {
		log.V(1).Infof("Unable to save config: %v", err)
	}
}

// Restore loads the arguments from disk and prefills the config.
func Restore(config *api.Config, cmd *cobra.Command) {
	data, err := os.ReadFile(DefaultConfigPath)
	if err != nil {
		log.V(1).Infof("Unable to restore %s: %v", DefaultConfigPath, err)
		log.Infof("Did you run %s docker-build in this directory before?", cmd.Root().Name())
		return
	}
	c := Config{}
	if err := json.Unmarshal(data, &c); err != nil {
		log.V(1).Infof("Unable to parse %s: %v", DefaultConfigPath, err)
		return
	}

	config.Tag = c.Tag
	config.ProjectID = c.ProjectID
	for name, value := range c.Flags {
		// flags given on this invocation win over the stored ones
		if flag := cmd.Flags().Lookup(name); flag != nil && !flag.Changed {
			if err := flag.Value.Set(value); err != nil {
				log.V(1).Infof("Unable to restore flag --%s=%s: %v", name, value, err)
			}
		}
	}
}
