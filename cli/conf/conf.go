// Package conf holds the CLI configuration. Commands read it through the
// package-level C after calling InitConfig.
package conf

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Conf struct {
	LogLevel string     `mapstructure:"log_level"`
	API      API        `mapstructure:"api"`
	Devnet   Devnet     `mapstructure:"devnet"`
	Oracle   OracleConf `mapstructure:"oracle"`
}

type API struct {
	BaseURL string `mapstructure:"base_url"`
	Sender  string `mapstructure:"sender"`
}

type Devnet struct {
	Listen string `mapstructure:"listen"`
	DB     string `mapstructure:"db"`
	Admin  string `mapstructure:"admin"`
	Holder string `mapstructure:"holder"`
}

type OracleConf struct {
	Config string `mapstructure:"config"`
}

var C Conf

// InitConfig loads powergrid.toml from POWERGRID_CONFIG or the working
// directory. A missing file leaves the defaults in place.
func InitConfig() {
	v := viper.New()
	path := os.Getenv("POWERGRID_CONFIG")
	if path == "" {
		path = "powergrid.toml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("log_level", "info")
	v.SetDefault("api.base_url", "http://localhost:8480")
	v.SetDefault("api.sender", "")
	v.SetDefault("devnet.listen", ":8480")
	v.SetDefault("devnet.db", "powergrid.db")
	v.SetDefault("devnet.admin", "0x0000000000000000000000000000000000000001")
	v.SetDefault("devnet.holder", "0x00000000000000000000000000000000000000aa")
	v.SetDefault("oracle.config", "oracle.toml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			panic(fmt.Sprintf("read config %s: %s", path, err))
		}
	}
	if err := v.Unmarshal(&C); err != nil {
		panic(fmt.Sprintf("parse config %s: %s", path, err))
	}
}
